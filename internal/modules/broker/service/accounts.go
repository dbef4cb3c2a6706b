package service

import (
	"context"
	"strings"
	"webhook_bot/internal/models"

	"github.com/pkg/errors"
)

const usersService = "UsersService"

type accountsResponse struct {
	Accounts []accountDTO `json:"accounts"`
}

// FindAccount ищет счёт по имени (без учёта регистра).
func (c *Client) FindAccount(ctx context.Context, name string) (string, error) {
	var resp accountsResponse
	if err := c.call(ctx, usersService, "GetAccounts", struct{}{}, &resp); err != nil {
		return "", err
	}
	for _, a := range resp.Accounts {
		if strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(name)) {
			return a.ID, nil
		}
	}
	return "", errors.Errorf("account %q not found among %d accounts", name, len(resp.Accounts))
}

// ResolveAccount запоминает id счёта для всех торговых вызовов.
func (c *Client) ResolveAccount(ctx context.Context, name string) error {
	id, err := c.FindAccount(ctx, name)
	if err != nil {
		return err
	}
	c.accountID = id
	return nil
}

type accountRequest struct {
	AccountID string `json:"accountId"`
}

type marginAttributesResponse struct {
	LiquidPortfolio *Quotation `json:"liquidPortfolio"`
	StartingMargin  *Quotation `json:"startingMargin"`
	MinimalMargin   *Quotation `json:"minimalMargin"`
}

// MarginAttributes всегда свежие, не кэшируем.
func (c *Client) MarginAttributes(ctx context.Context) (models.MarginAttributes, error) {
	var resp marginAttributesResponse
	if err := c.call(ctx, usersService, "GetMarginAttributes",
		accountRequest{AccountID: c.accountID}, &resp); err != nil {
		return models.MarginAttributes{}, err
	}
	attrs := models.MarginAttributes{
		StartingMargin:  dec(resp.StartingMargin),
		LiquidPortfolio: dec(resp.LiquidPortfolio),
	}
	if resp.LiquidPortfolio != nil {
		attrs.Currency = strings.ToLower(resp.LiquidPortfolio.Currency)
	}
	return attrs, nil
}
