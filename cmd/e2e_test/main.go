package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("E2E_BASE_URL"); v != "" {
		baseURL = v
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Buy a USD position, then sell part of it
	symbol := fmt.Sprintf("E2E%d", time.Now().Unix()%10000)
	checkEndpoint("POST", "/webhooks/transaction", map[string]interface{}{
		"symbol":        symbol,
		"account":       "e2e",
		"shares":        "10",
		"average_price": "US$100.00",
		"total_cost":    "US$1,000.00",
		"type":          "Market Buy",
		"time":          time.Now().Format(time.Kitchen),
	}, 200)
	checkEndpoint("POST", "/webhooks/transaction", map[string]interface{}{
		"symbol":        symbol,
		"shares":        4,
		"average_price": "US$110.00",
		"total_value":   "US$440.00",
		"type":          "Market Sell",
	}, 200)

	// 3. Rejected payload
	checkEndpoint("POST", "/webhooks/transaction", map[string]interface{}{"symbol": symbol, "shares": "0"}, 400)

	// 4. Dividend
	checkEndpoint("POST", "/webhooks/dividend", map[string]interface{}{
		"symbol": symbol,
		"amount": "US$2.50",
	}, 200)

	// 5. Holdings must show the remaining 6 shares
	verifyQuantity(symbol, 6)

	// 6. Read endpoints
	checkEndpoint("GET", "/portfolio/summary", nil, 200)
	checkEndpoint("GET", "/transactions", nil, 200)
	checkEndpoint("GET", "/dividends", nil, 200)
	checkEndpoint("GET", "/exchange-rate", nil, 200)

	// 7. Maintenance
	checkEndpoint("POST", "/holdings/prices", nil, 200)
	checkEndpoint("POST", "/portfolio/recalculate", nil, 200)
	checkEndpoint("POST", "/backfill", nil, 200)

	// 8. Quantity survives a full replay
	verifyQuantity(symbol, 6)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) []byte {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody
}

func verifyQuantity(symbol string, want float64) {
	var holdings []struct {
		Symbol   string      `json:"symbol"`
		Quantity json.Number `json:"quantity"`
	}
	if err := json.Unmarshal(checkEndpoint("GET", "/holdings", nil, 200), &holdings); err != nil {
		log.Fatalf("Decode holdings failed: %v", err)
	}
	for _, h := range holdings {
		if h.Symbol != symbol {
			continue
		}
		got, err := h.Quantity.Float64()
		if err != nil || got != want {
			log.Fatalf("Expected %s quantity %v, got %s", symbol, want, h.Quantity)
		}
		return
	}
	log.Fatalf("Holding %s not found", symbol)
}
