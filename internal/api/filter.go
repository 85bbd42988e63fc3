package api

import (
	"fmt"
	"strings"
)

// Filter expression builders. The backend evaluates these; the client is only
// responsible for producing well-formed expressions.

func FilterByUser(userID string) string {
	return fmt.Sprintf("user = %q", userID)
}

func FilterByCatch(catchID string) string {
	return fmt.Sprintf("catch = %q", catchID)
}

// FilterSharedWithGroup matches catches whose share list contains groupID.
func FilterSharedWithGroup(groupID string) string {
	return fmt.Sprintf("sharedWithGroups ~ %q", groupID)
}

// FilterMemberOf matches groups whose member list contains userID.
func FilterMemberOf(userID string) string {
	return fmt.Sprintf("members ~ %q", userID)
}

func FilterByGroup(groupID string) string {
	return fmt.Sprintf("group = %q", groupID)
}

// FilterAnyID matches any of the given record ids.
func FilterAnyID(ids ...string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("id = %q", id))
	}
	return strings.Join(parts, " || ")
}

// FilterAnd joins expressions with &&, skipping empty parts.
func FilterAnd(exprs ...string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, " && ")
}
