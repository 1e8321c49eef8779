package upbit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tradebot-backend/internal/domain"
)

// TradingClient handles authenticated Upbit API requests.
type TradingClient struct {
	accessKey  string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewTradingClient(accessKey, secretKey, baseURL string) *TradingClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TradingClient{
		accessKey:  accessKey,
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetBalance returns the available KRW balance.
func (c *TradingClient) GetBalance() (float64, error) {
	accounts, err := c.getAccounts()
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if a.Currency == "KRW" {
			balance, _ := strconv.ParseFloat(a.Balance, 64)
			return balance, nil
		}
	}
	return 0, nil
}

// GetHoldings returns all non-KRW balances with their average buy price.
// Dust below the sell minimum is still reported, callers filter as needed.
func (c *TradingClient) GetHoldings() ([]domain.Holding, error) {
	accounts, err := c.getAccounts()
	if err != nil {
		return nil, err
	}

	var holdings []domain.Holding
	for _, a := range accounts {
		if a.Currency == "KRW" {
			continue
		}
		amount, _ := strconv.ParseFloat(a.Balance, 64)
		if amount <= 0 {
			continue
		}
		avgPrice, _ := strconv.ParseFloat(a.AvgBuyPrice, 64)
		holdings = append(holdings, domain.Holding{
			Ticker:      a.Currency,
			Amount:      amount,
			AvgBuyPrice: avgPrice,
		})
	}
	return holdings, nil
}

// BuyMarket places a market buy spending `notional` KRW.
func (c *TradingClient) BuyMarket(ticker string, notional float64) (*domain.OrderResult, error) {
	params := url.Values{}
	params.Set("market", MarketCode(ticker))
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", fmt.Sprintf("%.4f", notional))

	order, err := c.placeOrder(params)
	if err != nil {
		return nil, err
	}
	order.Ticker = ticker
	order.Side = "buy"
	return order, nil
}

// SellMarket places a market sell of `amount` base asset.
func (c *TradingClient) SellMarket(ticker string, amount float64) (*domain.OrderResult, error) {
	params := url.Values{}
	params.Set("market", MarketCode(ticker))
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", fmt.Sprintf("%.8f", amount))

	order, err := c.placeOrder(params)
	if err != nil {
		return nil, err
	}
	order.Ticker = ticker
	order.Side = "sell"
	return order, nil
}

type accountResponse struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

func (c *TradingClient) getAccounts() ([]accountResponse, error) {
	resp, err := c.signedRequest("GET", "/v1/accounts", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var accounts []accountResponse
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *TradingClient) placeOrder(params url.Values) (*domain.OrderResult, error) {
	resp, err := c.signedRequest("POST", "/v1/orders", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var raw struct {
		UUID   string `json:"uuid"`
		Price  string `json:"price"`
		Volume string `json:"volume"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	price, _ := strconv.ParseFloat(raw.Price, 64)
	volume, _ := strconv.ParseFloat(raw.Volume, 64)

	return &domain.OrderResult{
		OrderID:  raw.UUID,
		Price:    price,
		Amount:   volume,
		Notional: price * volume,
	}, nil
}

// signedRequest makes a signed API request.
func (c *TradingClient) signedRequest(method, endpoint string, params url.Values) (*http.Response, error) {
	if params == nil {
		params = url.Values{}
	}

	nonce := strconv.FormatInt(time.Now().UnixMilli(), 10)
	params.Set("nonce", nonce)

	queryString := params.Encode()
	signature := c.sign(queryString)

	fullURL := c.baseURL + endpoint + "?" + queryString

	req, err := http.NewRequest(method, fullURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Api-Key", c.accessKey)
	req.Header.Set("Api-Signature", signature)

	return c.httpClient.Do(req)
}

// sign creates an HMAC SHA256 signature over the query string.
func (c *TradingClient) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
