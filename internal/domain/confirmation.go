package domain

import "fmt"

type Action string

const (
	ActionAdd       Action = "ADD"
	ActionRemoveOne Action = "REMOVE_ONE"
)

func (a Action) String() string {
	return string(a)
}

// PendingConfirmation is the question put to the shopper before a request
// is sent. It lives only until the shopper answers.
type PendingConfirmation struct {
	Action  Action `json:"action"`
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
}

func (p PendingConfirmation) Question() string {
	switch p.Action {
	case ActionAdd:
		return fmt.Sprintf("Do you want to add %s again?", p.Name)
	case ActionRemoveOne:
		return fmt.Sprintf("Do you want to remove 1 x %s?", p.Name)
	default:
		return fmt.Sprintf("Confirm %s for %s?", p.Action, p.Name)
	}
}
