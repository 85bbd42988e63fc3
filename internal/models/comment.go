package models

// Comment belongs to exactly one catch and one author. Cleanup when the
// parent catch is deleted is the store's responsibility, not enforced here.
type Comment struct {
	BaseRecord
	Content string         `json:"content"`
	User    string         `json:"user"`
	Catch   string         `json:"catch"`
	Expand  *CommentExpand `json:"expand,omitempty"`
}

type CommentExpand struct {
	User  *User  `json:"user,omitempty"`
	Catch *Catch `json:"catch,omitempty"`
}
