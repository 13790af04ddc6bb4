package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type memberSeed struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CIN       string `json:"cin"`
	Phone     string `json:"phone"`
	Title     string `json:"-"`
	PaidUntil int    `json:"-"`
}

type createdMember struct {
	ID int64 `json:"id"`
}

type authResponse struct {
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

type httpError struct {
	StatusCode int
	body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.body)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "API base URL")
	username := flag.String("username", "admin", "admin username (ADMIN_USERNAME)")
	password := flag.String("password", "", "admin password (ADMIN_PASSWORD)")
	flag.Parse()

	c := &client{baseURL: *baseURL, http: &http.Client{Timeout: 10 * time.Second}}
	if err := c.login(*username, *password); err != nil {
		log.Fatalf("login: %v", err)
	}

	members := []memberSeed{
		{FirstName: "Amine", LastName: "Alaoui", CIN: "DEMO001", Phone: "0600000001", Title: "Président", PaidUntil: 6},
		{FirstName: "Sara", LastName: "Bennani", CIN: "DEMO002", Phone: "0600000002", Title: "Trésorière", PaidUntil: 12},
		{FirstName: "Youssef", LastName: "Chraibi", CIN: "DEMO003", Phone: "0600000003", PaidUntil: 2},
	}
	year := time.Now().Year()

	for _, m := range members {
		if err := c.seedMember(m, year); err != nil {
			log.Printf("seed %s failed: %v", m.CIN, err)
		}
	}

	tx := map[string]interface{}{"type": "expense", "description": "location salle", "amount": 20000, "sender": "bureau"}
	if err := c.do(http.MethodPost, "/api/v1/transactions", tx, nil); err != nil {
		log.Printf("seed transaction failed: %v", err)
	}
}

func (c *client) login(username, password string) error {
	var resp authResponse
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(http.MethodPost, "/api/v1/auth/login", payload, &resp); err != nil {
		return err
	}
	c.token = resp.Tokens.AccessToken
	return nil
}

func (c *client) seedMember(m memberSeed, year int) error {
	var created createdMember
	if err := c.do(http.MethodPost, "/api/v1/members", m, &created); err != nil {
		var httpErr *httpError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("create member: %w", err)
	}
	if m.Title != "" {
		if err := c.do(http.MethodPut, fmt.Sprintf("/api/v1/members/%d/title", created.ID), map[string]string{"title": m.Title}, nil); err != nil {
			return fmt.Errorf("set title: %w", err)
		}
	}
	for month := 1; month <= m.PaidUntil; month++ {
		payment := map[string]interface{}{"memberId": created.ID, "month": month, "year": year, "paid": true}
		if err := c.do(http.MethodPut, "/api/v1/contributions", payment, nil); err != nil {
			return fmt.Errorf("pay month %d: %w", month, err)
		}
	}
	return nil
}

func (c *client) do(method, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &httpError{StatusCode: resp.StatusCode, body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
