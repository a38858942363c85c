package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	// 1. One-shot generation
	fmt.Println("1. Generating mind map...")
	generatePayload := map[string]interface{}{
		"main_theme": "Climate Change",
		"focus":      "mitigation",
		"map_type":   "theme",
	}

	tree, ok := sendRequest("POST", "/generate", generatePayload)
	if !ok {
		fmt.Println("FAILED: Generate")
		os.Exit(1)
	}
	fmt.Println("PASSED: Generate")

	// 2. Refinement seeded with the generated tree
	fmt.Println("2. Refining mind map...")
	refinePayload := map[string]interface{}{
		"main_theme": "Climate Change",
		"map_type":   "theme",
		"seed":       tree["tree"],
		"context":    "Focus on policy instruments adopted since 2020.",
	}

	refined, ok := sendRequest("POST", "/refine", refinePayload)
	if !ok {
		fmt.Println("FAILED: Refine")
		os.Exit(1)
	}
	fmt.Println("PASSED: Refine")

	// 3. Publish to the graph store if one is configured
	fmt.Println("3. Publishing to graph...")
	publishPayload := map[string]interface{}{
		"map_id": fmt.Sprintf("test-map-%d", time.Now().Unix()),
		"tree":   refined["tree"],
	}

	if _, ok := sendRequest("POST", "/publish", publishPayload); !ok {
		fmt.Println("SKIPPED: Publish (graph store not configured?)")
		return
	}
	fmt.Println("PASSED: Publish")
}

func sendRequest(method, endpoint string, payload interface{}) (map[string]interface{}, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}

	fmt.Printf("Response: %s\n", string(respBody))

	var parsed map[string]interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		fmt.Printf("Error parsing response: %v\n", err)
		return nil, false
	}
	return parsed, true
}
