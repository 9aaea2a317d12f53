package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateRequest is the payload sent to POST /api/generations
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// CreditsResponse is the body of GET /api/user/credits
type CreditsResponse struct {
	Credits int64 `json:"credits"`
}

// TestResult contains metrics for a single request
type TestResult struct {
	UserID       string
	StatusCode   int
	ResponseTime time.Duration
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests     int
	Accepted          int // 200 or 202
	Rejected          int // 402 insufficient credits
	Failed            int // anything else
	TotalTime         time.Duration
	ResponseTimes     []time.Duration
	TotalResponseTime time.Duration
	StatusCounts      map[int]int
	ErrorCounts       map[string]int
	AcceptedPerUser   map[string]int
	Lock              sync.Mutex
}

type session struct {
	userID string
	token  string
}

var prompts = []string{
	"a lighthouse on a cliff at dusk, oil painting",
	"a red fox sleeping in fresh snow",
	"isometric city block with neon signs in the rain",
	"watercolor map of an imaginary archipelago",
	"a bowl of ramen, studio photography",
}

func main() {
	concurrency := flag.Int("c", 10, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 60, "Total number of generation requests")
	users := flag.Int("users", 3, "Number of fresh users to spread the load across")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	secret := flag.String("secret", os.Getenv("IG_AUTH_JWT_SECRET"), "HS256 secret used to mint session tokens")
	issuer := flag.String("issuer", "", "Optional iss claim")
	audience := flag.String("audience", "", "Optional aud claim")
	delayMs := flag.Int("delay", 0, "Delay between requests in milliseconds")
	flag.Parse()

	if *secret == "" {
		fmt.Println("A JWT secret is required (-secret or IG_AUTH_JWT_SECRET)")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	sessions := make([]session, 0, *users)
	initial := make(map[string]int64, *users)
	for i := 0; i < *users; i++ {
		s, err := newSession(*secret, *issuer, *audience)
		if err != nil {
			fmt.Printf("Failed to mint token: %v\n", err)
			os.Exit(1)
		}
		credits, err := initUser(client, *baseURL, s)
		if err != nil {
			fmt.Printf("Failed to initialize user %s: %v\n", s.userID, err)
			os.Exit(1)
		}
		sessions = append(sessions, s)
		initial[s.userID] = credits
	}

	fmt.Printf("Load testing generations across %d fresh users\n", len(sessions))
	fmt.Printf("Concurrency: %d goroutines\n", *concurrency)
	fmt.Printf("Total requests: %d\n", *totalRequests)

	stats := &TestStats{
		TotalRequests:   *totalRequests,
		ResponseTimes:   make([]time.Duration, 0, *totalRequests),
		StatusCounts:    make(map[int]int),
		ErrorCounts:     make(map[string]int),
		AcceptedPerUser: make(map[string]int),
	}

	jobs := make(chan int, *totalRequests)
	results := make(chan TestResult, *totalRequests)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(client, *baseURL, *delayMs, sessions, jobs, results)
		}()
	}

	for i := 0; i < *totalRequests; i++ {
		jobs <- i
	}
	close(jobs)

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range results {
			stats.record(result)
		}
	}()

	startTime := time.Now()
	wg.Wait()
	close(results)
	<-collected
	stats.TotalTime = time.Since(startTime)

	printResults(stats)
	if !checkLedger(client, *baseURL, sessions, initial, stats) {
		os.Exit(1)
	}
}

func newSession(secret, issuer, audience string) (session, error) {
	userID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return session{}, err
	}
	return session{userID: userID, token: token}, nil
}

func initUser(client *http.Client, baseURL string, s session) (int64, error) {
	var body CreditsResponse
	if _, err := call(client, http.MethodPost, baseURL+"/api/user/init", s, nil, &body); err != nil {
		return 0, err
	}
	return body.Credits, nil
}

func worker(client *http.Client, baseURL string, delayMs int, sessions []session,
	jobs <-chan int, results chan<- TestResult) {
	for range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}

		s := sessions[rand.Intn(len(sessions))]
		payload := GenerateRequest{Prompt: prompts[rand.Intn(len(prompts))]}

		start := time.Now()
		status, err := call(client, http.MethodPost, baseURL+"/api/generations", s, payload, nil)
		results <- TestResult{
			UserID:       s.userID,
			StatusCode:   status,
			ResponseTime: time.Since(start),
			Error:        err,
		}
	}
}

// call sends one authenticated request; non-2xx statuses are returned without error
func call(client *http.Client, method, url string, s session, in any, out any) (int, error) {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *TestStats) record(result TestResult) {
	s.Lock.Lock()
	defer s.Lock.Unlock()

	s.ResponseTimes = append(s.ResponseTimes, result.ResponseTime)
	s.TotalResponseTime += result.ResponseTime
	s.StatusCounts[result.StatusCode]++

	switch {
	case result.Error != nil:
		s.Failed++
		s.ErrorCounts[result.Error.Error()]++
	case result.StatusCode == http.StatusOK || result.StatusCode == http.StatusAccepted:
		s.Accepted++
		s.AcceptedPerUser[result.UserID]++
	case result.StatusCode == http.StatusPaymentRequired:
		s.Rejected++
	default:
		s.Failed++
		s.ErrorCounts[fmt.Sprintf("HTTP status code %d", result.StatusCode)]++
	}
}

// checkLedger verifies no user was charged for more generations than the grant covered
func checkLedger(client *http.Client, baseURL string, sessions []session,
	initial map[string]int64, stats *TestStats) bool {
	fmt.Println("\n----------------- LEDGER CHECK -----------------")
	ok := true
	for _, s := range sessions {
		var body CreditsResponse
		if _, err := call(client, http.MethodGet, baseURL+"/api/user/credits", s, nil, &body); err != nil {
			fmt.Printf("User %s: could not read balance: %v\n", s.userID, err)
			ok = false
			continue
		}

		accepted := int64(stats.AcceptedPerUser[s.userID])
		fmt.Printf("User %s: initial %d, accepted %d, balance %d\n",
			s.userID, initial[s.userID], accepted, body.Credits)

		if body.Credits < 0 || accepted > initial[s.userID] {
			fmt.Println("  OVERDRAFT: more generations accepted than credits granted")
			ok = false
		}
	}
	return ok
}

func printResults(stats *TestStats) {
	var avg, p50, p90, p99 time.Duration
	if n := len(stats.ResponseTimes); n > 0 {
		avg = stats.TotalResponseTime / time.Duration(n)

		sorted := make([]time.Duration, n)
		copy(sorted, stats.ResponseTimes)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		p50 = sorted[n*50/100]
		p90 = sorted[n*90/100]
		p99 = sorted[n*99/100]
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Accepted:            %d\n", stats.Accepted)
	fmt.Printf("Insufficient credits: %d\n", stats.Rejected)
	fmt.Printf("Failed:              %d\n", stats.Failed)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avg)
	fmt.Printf("P50 Response:        %v\n", p50)
	fmt.Printf("P90 Response:        %v\n", p90)
	fmt.Printf("P99 Response:        %v\n", p99)

	fmt.Println("\n----------------- STATUS CODES -----------------")
	for status, count := range stats.StatusCounts {
		fmt.Printf("%d: %d\n", status, count)
	}

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", errMsg, count)
		}
	}
}
