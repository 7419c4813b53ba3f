// Package scope enumerates the capability scopes a credential can be granted
// and checks requested scopes against granted ones.
package scope

// Info maps each scope to the description shown on the consent page.
var Info = map[string]string{
	"profile":  "Get basic profile information",
	"email":    "Get profile email address",
	"create":   "Create new posts using Micropub",
	"update":   "Edit existing posts using Micropub",
	"delete":   "Delete posts using Micropub",
	"undelete": "Restore deleted posts using Micropub",
	"media":    "Upload files using Micropub",
}

// All lists every scope in display order.
var All = []string{"profile", "email", "create", "update", "delete", "undelete", "media"}

// Known reports whether name is a recognized scope.
func Known(name string) bool {
	_, ok := Info[name]
	return ok
}

// Satisfied reports whether every required scope is present in granted.
func Satisfied(granted, required []string) bool {
	for _, req := range required {
		found := false
		for _, g := range granted {
			if g == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
