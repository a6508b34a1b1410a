package trello

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

// ListTasks lists the cards of board query.ProjectID with their list name as
// status. Status keeps only cards in the list of that name.
func (c *Client) ListTasks(ctx context.Context, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error) {
	board, err := c.resolveBoard(query.ProjectID)
	if err != nil {
		return nil, err
	}

	cards, err := c.getArray(ctx, fmt.Sprintf("/boards/%s/cards", url.PathEscape(board)), nil)
	if err != nil {
		return nil, err
	}

	lists, err := c.lists(ctx, board)
	if err != nil {
		return nil, err
	}
	names := listNames(lists)

	tasks := make([]*models.UnifiedTask, 0, len(cards))
	for _, card := range cards {
		task := mapTask(card, board, names)
		if query.Status != "" && !strings.EqualFold(task.Status, query.Status) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreateTask adds a card to the list named params.Status, or to the first
// list when Status is empty
func (c *Client) CreateTask(ctx context.Context, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error) {
	board, err := c.resolveBoard(params.ProjectID)
	if err != nil {
		return nil, err
	}

	lists, err := c.lists(ctx, board)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, models.NewConfigurationError(models.ProviderTrello, fmt.Sprintf("no lists found on board %s", board), nil)
	}

	target := lists[0]
	if params.Status != "" {
		found, ok := findList(lists, params.Status)
		if !ok {
			return nil, models.NewConfigurationError(models.ProviderTrello, fmt.Sprintf("no list named '%s' on board %s", params.Status, board), nil)
		}
		target = found
	}

	card, err := c.createCard(ctx, target.ID, params.Title, params.Description)
	if err != nil {
		return nil, err
	}
	return mapTask(card, board, listNames(lists)), nil
}

// MoveTask moves a card to the list named params.TargetStatus on the card's board
func (c *Client) MoveTask(ctx context.Context, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error) {
	if err := c.checkAPIKey(); err != nil {
		return nil, err
	}

	cardPath := fmt.Sprintf("/cards/%s", url.PathEscape(params.TaskID))
	card, err := c.sendObject(ctx, http.MethodGet, cardPath, nil)
	if err != nil {
		return nil, err
	}

	board := card.Get("idBoard").String()
	if board == "" {
		return nil, models.NewUnexpectedResponse(models.ProviderTrello, card.Raw)
	}

	lists, err := c.lists(ctx, board)
	if err != nil {
		return nil, err
	}

	target, ok := findList(lists, params.TargetStatus)
	if !ok {
		return nil, models.NewConfigurationError(models.ProviderTrello, fmt.Sprintf("no list named '%s' on board %s", params.TargetStatus, board), nil)
	}

	values := url.Values{}
	values.Set("idList", target.ID)
	moved, err := c.sendObject(ctx, http.MethodPut, cardPath, values)
	if err != nil {
		return nil, err
	}
	return mapTask(moved, board, listNames(lists)), nil
}

func mapTask(card gjson.Result, board string, names map[string]string) *models.UnifiedTask {
	status, ok := names[card.Get("idList").String()]
	if !ok {
		status = unknownList
	}

	return &models.UnifiedTask{
		ID:          stringOr(card.Get("id"), ""),
		Title:       stringOr(card.Get("name"), "untitled"),
		Description: stringOr(card.Get("desc"), ""),
		Status:      status,
		ProjectID:   models.FirstNonEmpty(stringOr(card.Get("idBoard"), ""), board),
		Provider:    models.ProviderTrello,
		Raw:         raw(card),
	}
}
