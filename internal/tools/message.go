package tools

import "context"

// messageNotifyUser lets the executor surface a note to the user without
// expecting a reply; it never touches the sandbox, it only produces text
// for the SSE projection to forward.
type messageNotifyUser struct{}

type MessageNotifyUserParams struct {
	Text string `json:"text" jsonschema:"required,description=Message text to display to user"`
}

func NewMessageNotifyUser() *messageNotifyUser { return &messageNotifyUser{} }
func (t *messageNotifyUser) Name() string      { return "message_notify_user" }
func (t *messageNotifyUser) Description() string {
	return "Send a message to user without requiring a response. Use for acknowledging receipt of messages, providing progress updates, reporting task completion, or explaining changes in approach."
}
func (t *messageNotifyUser) NewParams() any { return &MessageNotifyUserParams{} }
func (t *messageNotifyUser) Call(_ context.Context, params any) (string, error) {
	return params.(*MessageNotifyUserParams).Text, nil
}
