package auth

import (
	"net/http"

	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

// FlowSession adapts one request's cookies to joins.Session. Changes are
// buffered in the request's sessions and written by Save.
type FlowSession struct {
	sm   *SessionManager
	w    http.ResponseWriter
	r    *http.Request
	user *models.User
}

// FlowSession returns the joins.Session view of the request.
func (sm *SessionManager) FlowSession(w http.ResponseWriter, r *http.Request) *FlowSession {
	return &FlowSession{sm: sm, w: w, r: r}
}

// User implements joins.Session.
func (f *FlowSession) User() *models.User {
	if f.user != nil {
		return f.user
	}
	u, _ := CurrentUser(f.r)
	return u
}

// SignIn marks the browser as signed in as u. Written by Save.
func (f *FlowSession) SignIn(u *models.User) {
	f.sm.markSignedIn(f.r, u)
	f.user = u
}

// PendingJoin implements joins.Session.
func (f *FlowSession) PendingJoin() (joins.Intent, bool) {
	sess := f.sm.intentSession(f.r)
	in, ok := sess.Values[intentKey].(joins.Intent)
	if !ok || in.GroupID == "" {
		return joins.Intent{}, false
	}
	return in, true
}

// SetPendingJoin implements joins.Session.
func (f *FlowSession) SetPendingJoin(in joins.Intent) {
	sess := f.sm.intentSession(f.r)
	sess.Values[intentKey] = in
}

// ClearPendingJoin implements joins.Session.
func (f *FlowSession) ClearPendingJoin() {
	sess := f.sm.intentSession(f.r)
	delete(sess.Values, intentKey)
}

// SetView implements joins.Session.
func (f *FlowSession) SetView(v models.View) {
	f.sm.setView(f.r, v)
}

// Save writes both cookies.
func (f *FlowSession) Save() error {
	intent := f.sm.intentSession(f.r)
	if err := intent.Save(f.r, f.w); err != nil {
		return err
	}
	sess := f.sm.loginSession(f.r)
	return sess.Save(f.r, f.w)
}
