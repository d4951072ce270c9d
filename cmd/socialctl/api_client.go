package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID            string   `json:"_id"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Location      string   `json:"location"`
	Occupation    string   `json:"occupation"`
	Friends       []string `json:"friends"`
	ViewedProfile int      `json:"viewedProfile"`
	Impressions   int      `json:"impressions"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Post struct {
	ID          string          `json:"_id"`
	UserID      string          `json:"userId"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Description string          `json:"description"`
	Likes       map[string]bool `json:"likes"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Friend struct {
	ID         string `json:"_id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Occupation string `json:"occupation"`
	Location   string `json:"location"`
}

type RegisterRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Location   string `json:"location,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

func (c *APIClient) Register(req RegisterRequest) (*User, error) {
	var user User
	if err := c.do(http.MethodPost, "/auth/register", req, "", http.StatusCreated, &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

func (c *APIClient) Login(email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

func (c *APIClient) Feed(token, userID string) ([]Post, error) {
	path := "/posts"
	if userID != "" {
		path = "/posts/" + userID + "/posts"
	}
	var posts []Post
	if err := c.do(http.MethodGet, path, nil, token, http.StatusOK, &posts); err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return posts, nil
}

func (c *APIClient) CreatePost(token, description string) ([]Post, error) {
	body := map[string]string{"description": description}
	var posts []Post
	if err := c.do(http.MethodPost, "/posts", body, token, http.StatusCreated, &posts); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return posts, nil
}

func (c *APIClient) ToggleLike(token, postID string) (*Post, error) {
	var post Post
	if err := c.do(http.MethodPatch, "/posts/"+postID+"/like", nil, token, http.StatusOK, &post); err != nil {
		return nil, fmt.Errorf("like: %w", err)
	}
	return &post, nil
}

func (c *APIClient) ToggleFriend(token, userID, friendID string) ([]Friend, error) {
	var friends []Friend
	if err := c.do(http.MethodPatch, "/users/"+userID+"/"+friendID, nil, token, http.StatusOK, &friends); err != nil {
		return nil, fmt.Errorf("toggle friend: %w", err)
	}
	return friends, nil
}

func (c *APIClient) Friends(token, userID string) ([]Friend, error) {
	var friends []Friend
	if err := c.do(http.MethodGet, "/users/"+userID+"/friends", nil, token, http.StatusOK, &friends); err != nil {
		return nil, fmt.Errorf("friends: %w", err)
	}
	return friends, nil
}

func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr struct {
			Message string `json:"message"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
