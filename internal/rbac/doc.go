// Package rbac resolves what the current user may see: the coarse role, the
// capability table for that role, route access, render-time gates and the
// primary navigation. Every decision is a pure function of the session user;
// nothing here returns an error.
package rbac
