package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"os"

	"github.com/KrampusTON/indyback/utils"
)

// BlockchainService reads token-sale figures from the chain gateway
// and submits reward claims through the payout relayer. Both are plain
// HTTP round trips; every call takes a context and honors its
// deadline.
type BlockchainService struct {
	GatewayURL      string // VM query endpoint, e.g. https://gateway.multiversx.com
	APIURL          string // REST index API, e.g. https://api.multiversx.com
	PayoutURL       string // claim relayer that signs and broadcasts
	PayoutToken     string
	SaleContract    string
	RewardsContract string
	TokenID         string
	Client          *http.Client
}

func NewBlockchainService() *BlockchainService {
	return &BlockchainService{
		GatewayURL:      envOr("CHAIN_GATEWAY_URL", "https://gateway.multiversx.com"),
		APIURL:          envOr("CHAIN_API_URL", "https://api.multiversx.com"),
		PayoutURL:       os.Getenv("PAYOUT_SERVICE_URL"),
		PayoutToken:     os.Getenv("PAYOUT_SERVICE_TOKEN"),
		SaleContract:    os.Getenv("SALE_CONTRACT_ADDRESS"),
		RewardsContract: os.Getenv("REWARDS_CONTRACT_ADDRESS"),
		TokenID:         envOr("TOKEN_ID", "INDY-123456"),
		Client:          utils.HTTPClient,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// vmQuery runs a read-only contract query and returns the first
// return value decoded from base64.
func (s *BlockchainService) vmQuery(ctx context.Context, scAddress, funcName string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"scAddress": scAddress,
		"funcName":  funcName,
		"args":      []string{},
	}
	jsonData, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/vm-values/query", s.GatewayURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("vm query %s returned %d: %s", funcName, resp.StatusCode, string(body))
	}

	var out struct {
		Data struct {
			Data struct {
				ReturnData []string `json:"returnData"`
			} `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode vm query response: %w", err)
	}
	if len(out.Data.Data.ReturnData) == 0 {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(out.Data.Data.ReturnData[0])
}

// denomToFloat converts an 18-decimal big-int amount to a float.
func denomToFloat(raw []byte) float64 {
	v := new(big.Int).SetBytes(raw)
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), big.NewFloat(1e18)).Float64()
	return f
}

// GetTokenPrice reads the current token price from the sale contract.
// Falls back to the launch price when the contract returns nothing.
func (s *BlockchainService) GetTokenPrice(ctx context.Context) (float64, error) {
	raw, err := s.vmQuery(ctx, s.SaleContract, "getTokenPrice")
	if err != nil {
		return 0, classifyUpstream(err)
	}
	if len(raw) == 0 {
		return 0.000001, nil
	}
	return denomToFloat(raw), nil
}

// GetTokensAvailable reads the sale contract's remaining token
// balance via the index API.
func (s *BlockchainService) GetTokensAvailable(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/accounts/%s/tokens/%s", s.APIURL, s.SaleContract, s.TokenID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, classifyUpstream(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("%w: token balance returned %d: %s", ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	var out struct {
		Balance string `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode token balance: %w", err)
	}
	balance, ok := new(big.Int).SetString(out.Balance, 10)
	if !ok {
		return 0, fmt.Errorf("unparseable token balance %q", out.Balance)
	}
	return denomToFloat(balance.Bytes()), nil
}

// GetTotalBought reads the cumulative sold amount from the sale
// contract.
func (s *BlockchainService) GetTotalBought(ctx context.Context) (float64, error) {
	raw, err := s.vmQuery(ctx, s.SaleContract, "getTotalBoughtAmountOfEsdt")
	if err != nil {
		return 0, classifyUpstream(err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	return denomToFloat(raw), nil
}

// SubmitClaim asks the payout relayer to broadcast a claim for the
// user. attemptID rides along as an idempotency key so a retried
// submission after a crash cannot pay out twice. Success means
// "accepted for submission", not settled.
func (s *BlockchainService) SubmitClaim(ctx context.Context, userAddress string, amount float64, attemptID string) error {
	if s.PayoutURL == "" {
		return fmt.Errorf("%w: PAYOUT_SERVICE_URL not configured", ErrUpstreamUnavailable)
	}

	reqBody := map[string]interface{}{
		"address":    userAddress,
		"amount":     amount,
		"attempt_id": attemptID,
		"contract":   s.RewardsContract,
	}
	jsonData, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/claims", s.PayoutURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", attemptID)
	if s.PayoutToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.PayoutToken)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return classifyUpstream(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("Payout relayer returned %d for %s: %s", resp.StatusCode, userAddress, string(body))
		return fmt.Errorf("%w: relayer returned %d", ErrPayoutSubmission, resp.StatusCode)
	}

	log.Printf("Reward claim submitted for %s (attempt %s)", userAddress, attemptID)
	return nil
}
