package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/teamdash/team-dashboard/internal/config"
	"github.com/teamdash/team-dashboard/internal/models"
)

// ClaimsParser validates a JWT and returns its claims.
type ClaimsParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorResolver accepts Casdoor-issued JWTs instead of stored sessions.
// Login and logout happen at Casdoor.
type CasdoorResolver struct {
	parser ClaimsParser
}

func NewCasdoorResolver(cfg config.CasdoorConfig) *CasdoorResolver {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorResolver{parser: client}
}

func NewCasdoorResolverWithParser(parser ClaimsParser) *CasdoorResolver {
	return &CasdoorResolver{parser: parser}
}

func (r *CasdoorResolver) Resolve(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	claims, err := r.parser.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", ErrNoSession, err)
	}

	user, err := userFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	s := &Session{Token: token, User: user}
	if claims.IssuedAt != nil {
		s.CreatedAt = claims.IssuedAt.Time.UTC()
	} else {
		s.CreatedAt = time.Now().UTC()
	}
	return s, nil
}

func userFromClaims(claims *casdoorsdk.Claims) (*models.User, error) {
	if claims.User.Id == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	return &models.User{
		ID:        numericID(claims.User.Id),
		Username:  claims.User.Name,
		FirstName: claims.User.FirstName,
		LastName:  claims.User.LastName,
		Email:     claims.User.Email,
		IsManager: isManager(claims),
		Role:      claims.User.Type,
	}, nil
}

// isManager maps Casdoor admin status, user type or role membership onto the
// manager flag.
func isManager(claims *casdoorsdk.Claims) bool {
	if claims.User.IsAdmin {
		return true
	}
	switch strings.ToLower(claims.User.Type) {
	case "manager", "admin", "administrator":
		return true
	}
	for _, role := range claims.User.Roles {
		if role != nil && strings.EqualFold(role.Name, "manager") {
			return true
		}
	}
	return false
}

// Casdoor ids are usually UUIDs; numeric ids are kept, others hashed.
func numericID(id string) int64 {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64() >> 1)
}
