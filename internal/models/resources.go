package models

import "time"

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"

	DefaultRisk   = RiskMedium
	DefaultStatus = "Unknown"
)

type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Owner       *User      `json:"owner,omitempty"`
	OwnerName   string     `json:"owner_name"`
	MemberIDs   []int64    `json:"team_members"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (p *Project) Normalize() {
	if p.Status == "" {
		p.Status = DefaultStatus
	}
	if p.OwnerName == "" {
		p.OwnerName = p.Owner.DisplayName()
	}
	if p.MemberIDs == nil {
		p.MemberIDs = []int64{}
	}
	p.Progress = clampPercent(p.Progress)
}

type TeamMember struct {
	ID               int64    `json:"id"`
	User             *User    `json:"user,omitempty"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Position         string   `json:"position"`
	Department       string   `json:"department"`
	RiskLevel        string   `json:"risk_level"`
	PerformanceScore *float64 `json:"performance_score,omitempty"`
	ManagerID        *int64   `json:"manager_id,omitempty"`
}

func (m *TeamMember) Normalize() {
	if m.Name == "" {
		m.Name = m.User.DisplayName()
	}
	if m.Email == "" && m.User != nil {
		m.Email = m.User.Email
	}
	switch m.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		m.RiskLevel = DefaultRisk
	}
}

type SurveyQuestion struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

type Survey struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Status        string           `json:"status"`
	CreatedBy     *User            `json:"created_by,omitempty"`
	CreatorName   string           `json:"creator_name"`
	Questions     []SurveyQuestion `json:"questions"`
	ResponseCount int              `json:"response_count"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
}

func (s *Survey) Normalize() {
	if s.Status == "" {
		s.Status = DefaultStatus
	}
	if s.CreatorName == "" {
		s.CreatorName = s.CreatedBy.DisplayName()
	}
	if s.Questions == nil {
		s.Questions = []SurveyQuestion{}
	}
	for i := range s.Questions {
		if s.Questions[i].Options == nil {
			s.Questions[i].Options = []string{}
		}
	}
}

type ActionItem struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	AssignedTo   *User      `json:"assigned_to,omitempty"`
	AssigneeName string     `json:"assignee_name"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (a *ActionItem) Normalize() {
	if a.Status == "" {
		a.Status = DefaultStatus
	}
	if a.Priority == "" {
		a.Priority = RiskMedium
	}
	if a.AssigneeName == "" {
		a.AssigneeName = a.AssignedTo.DisplayName()
	}
}

type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DurationMin int    `json:"duration_minutes"`
	Progress    int    `json:"progress"`
	Assigned    bool   `json:"is_assigned"`
}

func (c *Course) Normalize() {
	c.Progress = clampPercent(c.Progress)
}

type Activity struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type DashboardSummary struct {
	TeamSize           int          `json:"team_size"`
	ActiveProjects     int          `json:"active_projects"`
	PendingActionItems int          `json:"pending_action_items"`
	CompletedCourses   int          `json:"completed_courses"`
	SurveyResponseRate float64      `json:"survey_response_rate"`
	AtRiskMembers      []TeamMember `json:"at_risk_members"`
	RecentActivity     []Activity   `json:"recent_activity"`
}

func (d *DashboardSummary) Normalize() {
	if d.AtRiskMembers == nil {
		d.AtRiskMembers = []TeamMember{}
	}
	for i := range d.AtRiskMembers {
		d.AtRiskMembers[i].Normalize()
	}
	if d.RecentActivity == nil {
		d.RecentActivity = []Activity{}
	}
	for i := range d.RecentActivity {
		if d.RecentActivity[i].UserName == "" {
			d.RecentActivity[i].UserName = UnknownUserName
		}
	}
}

type OrgNode struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Email    string    `json:"email"`
	Children []OrgNode `json:"children"`
}

func (n *OrgNode) Normalize() {
	if n.Name == "" {
		n.Name = UnknownUserName
	}
	if n.Children == nil {
		n.Children = []OrgNode{}
	}
	for i := range n.Children {
		n.Children[i].Normalize()
	}
}

type ChatMessage struct {
	ID         int64     `json:"id"`
	Sender     *User     `json:"sender,omitempty"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *ChatMessage) Normalize() {
	if m.SenderName == "" {
		m.SenderName = m.Sender.DisplayName()
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type TeamAnalytics struct {
	ProjectCompletionRate float64        `json:"project_completion_rate"`
	SurveyResponseRate    float64        `json:"survey_response_rate"`
	CourseCompletionRate  float64        `json:"course_completion_rate"`
	OpenActionItems       int            `json:"open_action_items"`
	RiskDistribution      map[string]int `json:"risk_distribution"`
}

func (a *TeamAnalytics) Normalize() {
	if a.RiskDistribution == nil {
		a.RiskDistribution = map[string]int{}
	}
	for _, level := range []string{RiskLow, RiskMedium, RiskHigh} {
		if _, ok := a.RiskDistribution[level]; !ok {
			a.RiskDistribution[level] = 0
		}
	}
}
