package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"cashflow/internal/core"
)

const maxRetries = 4

// check it meets the interface
var _ Source = &LunchMoney{}

// LunchMoney fetches transactions, accounts and assets from the Lunch Money
// REST API. https://lunchmoney.dev/
type LunchMoney struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewLunchMoney(baseURL, token string, timeout time.Duration) *LunchMoney {
	return &LunchMoney{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type lmTransaction struct {
	ID             int64       `json:"id"`
	Date           string      `json:"date"`
	Amount         string      `json:"amount"`
	Currency       string      `json:"currency"`
	Payee          string      `json:"payee"`
	Notes          string      `json:"notes"`
	AssetID        json.Number `json:"asset_id"`
	PlaidAccountID json.Number `json:"plaid_account_id"`
}

type lmTransactionsPage struct {
	Transactions []lmTransaction `json:"transactions"`
}

type lmPlaidAccount struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Subtype  string      `json:"subtype"`
	Balance  string      `json:"balance"`
	Currency string      `json:"currency"`
}

type lmPlaidAccountsPage struct {
	PlaidAccounts []lmPlaidAccount `json:"plaid_accounts"`
}

type lmAsset struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	TypeName string      `json:"type_name"`
	Subtype  string      `json:"subtype_name"`
	Balance  string      `json:"balance"`
	Currency string      `json:"currency"`
}

type lmAssetsPage struct {
	Assets []lmAsset `json:"assets"`
}

// Transactions implements Source.
func (lm *LunchMoney) Transactions(ctx context.Context, from, to core.Date) ([]Record, error) {
	params := url.Values{}
	params.Set("start_date", from.String())
	params.Set("end_date", to.String())

	body, err := lm.get(ctx, "/transactions", params)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	var page lmTransactionsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	records := make([]Record, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		records = append(records, Record{
			LMID:           tx.ID,
			Date:           tx.Date,
			Amount:         tx.Amount,
			Currency:       tx.Currency,
			Payee:          tx.Payee,
			Note:           tx.Notes,
			AccountID:      tx.AssetID.String(),
			PlaidAccountID: tx.PlaidAccountID.String(),
		})
	}
	return records, nil
}

// Accounts implements Source. Linked accounts and manual assets live on two
// endpoints; fetch them concurrently and merge.
func (lm *LunchMoney) Accounts(ctx context.Context) ([]AccountRecord, error) {
	var (
		plaid  []lmPlaidAccount
		assets []lmAsset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := lm.get(gctx, "/plaid_accounts", nil)
		if err != nil {
			return fmt.Errorf("fetch plaid accounts: %w", err)
		}
		var page lmPlaidAccountsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode plaid accounts: %w", err)
		}
		plaid = page.PlaidAccounts
		return nil
	})
	g.Go(func() error {
		body, err := lm.get(gctx, "/assets", nil)
		if err != nil {
			return fmt.Errorf("fetch assets: %w", err)
		}
		var page lmAssetsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode assets: %w", err)
		}
		assets = page.Assets
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]AccountRecord, 0, len(plaid)+len(assets))
	for _, a := range plaid {
		if a.ID.String() == "" {
			continue
		}
		out = append(out, AccountRecord{
			ID:       a.ID.String(),
			Name:     a.Name,
			Provider: "plaid",
			Type:     strings.ToLower(a.Type),
			Subtype:  strings.ToLower(a.Subtype),
			Balance:  a.Balance,
			Currency: a.Currency,
		})
	}
	for _, a := range assets {
		if a.ID.String() == "" {
			continue
		}
		out = append(out, AccountRecord{
			ID:       a.ID.String(),
			Name:     a.Name,
			Provider: "asset",
			Type:     strings.ToLower(a.TypeName),
			Subtype:  strings.ToLower(a.Subtype),
			Balance:  a.Balance,
			Currency: a.Currency,
		})
	}
	return out, nil
}

// get performs an authenticated GET with exponential-backoff retries.
// 4xx responses are permanent: retrying a rejected request cannot help.
func (lm *LunchMoney) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := lm.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+lm.token)
		req.Header.Set("Accept", "application/json")

		resp, err := lm.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
		default:
			return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "Provider request failed, retrying",
			"path", path, "wait", wait.String(), "error", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}
