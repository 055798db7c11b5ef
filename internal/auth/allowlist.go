package auth

import "sort"

// AllowList is the static set of emails permitted to use the system.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an AllowList. Entries are normalized; empty ones are dropped.
func NewAllowList(emails []string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = NormalizeEmail(e)
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &AllowList{emails: set}
}

// Allows reports whether email is on the list.
func (a *AllowList) Allows(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

// Len returns the number of allow-listed emails.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

// Emails returns the allow-listed emails in sorted order.
func (a *AllowList) Emails() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.emails))
	for e := range a.emails {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
