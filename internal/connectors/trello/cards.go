package trello

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

const unknownList = "Unknown"

// List returns the board's open cards. Lists are fetched separately to
// resolve each card's idList into a name, attached as Extra["list"].
func (c *Client) List(ctx context.Context, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error) {
	board, err := c.resolveBoard(models.FirstNonEmpty(query.Repo, query.Workspace))
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

	issues := make([]*models.UnifiedIssue, 0, len(cards))
	for _, card := range cards {
		issues = append(issues, mapCard(card, names))
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("board", board).
			Int("cards", len(issues)).
			Int("lists", len(lists)).
			Msg("Listed Trello cards")
	}

	return issues, nil
}

// Create adds a card to the first list of the board
func (c *Client) Create(ctx context.Context, params models.UnifiedCreateParams) (*models.UnifiedIssue, error) {
	board, err := c.resolveBoard(models.FirstNonEmpty(params.Repo, params.Workspace))
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

	card, err := c.createCard(ctx, lists[0].ID, params.Title, params.Body)
	if err != nil {
		return nil, err
	}
	return mapCard(card, listNames(lists)), nil
}

func (c *Client) createCard(ctx context.Context, listID, name, desc string) (gjson.Result, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("idList", listID)
	if desc != "" {
		params.Set("desc", desc)
	}
	return c.sendObject(ctx, http.MethodPost, "/cards", params)
}

// mapCard is the single card projection shared by List and Create
func mapCard(card gjson.Result, names map[string]string) *models.UnifiedIssue {
	listName, ok := names[card.Get("idList").String()]
	if !ok {
		listName = unknownList
	}

	state := "open"
	if card.Get("closed").Bool() {
		state = "closed"
	}

	return &models.UnifiedIssue{
		ID:         stringOr(card.Get("id"), ""),
		Title:      stringOr(card.Get("name"), "untitled"),
		State:      state,
		URL:        stringOr(card.Get("url"), ""),
		Provider:   models.ProviderTrello,
		Extra:      map[string]string{"list": listName},
		RawPayload: raw(card),
	}
}
