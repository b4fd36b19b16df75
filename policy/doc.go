// Package policy carries the authenticated actor through a context and
// decides which permissions grant administrative override on approval
// requests.
package policy
