package agent

import (
	"context"

	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// Decisions returned by AutoDecide.
const (
	DecisionNoAction = "no_action"
	DecisionNotified = "notified"
)

// Decision is the outcome of an automatic restock check.
type Decision struct {
	NotifyResult *inventory.NotifyResult `json:"notify_result,omitempty"`
	Decision     string                  `json:"decision"`
	Message      string                  `json:"message,omitempty"`
	Issues       []model.Item            `json:"issues,omitempty"`
	Count        int                     `json:"count"`
}

// AutoDecide lists items and, if any is Low or Critical, asks the backend to
// notify emails.
func AutoDecide(ctx context.Context, c *Client, emails []string) (Decision, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return Decision{}, err
	}

	var issues []model.Item
	for _, item := range items {
		if item.Category.NeedsRestock() {
			issues = append(issues, item)
		}
	}

	if len(issues) == 0 {
		return Decision{Decision: DecisionNoAction, Message: "All items safe", Count: 0}, nil
	}

	result, err := c.Notify(ctx, emails)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Decision:     DecisionNotified,
		Issues:       issues,
		Count:        len(issues),
		NotifyResult: &result,
	}, nil
}
