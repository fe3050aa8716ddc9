package integration_testing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type apiResponse struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data"`
	Error *apiError      `json:"error"`
}

// newClient returns a client with its own cookie jar, i.e. its own identity
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
	}
}

func doRequest(t *testing.T, client *http.Client, method, path, body string) (int, apiResponse) {
	t.Helper()

	var bodyReader *strings.Reader
	if body == "" {
		bodyReader = strings.NewReader("")
	} else {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var apiResp apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiResp))
	return resp.StatusCode, apiResp
}

func waitServerUp(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(serverEndpoint + "/blogs")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not come up")
}

func TestBlogbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := newSuite(ctx)
	defer suite.cleanup()
	waitServerUp(t)

	alice := newClient(t)
	bob := newClient(t)
	anonymous := &http.Client{Timeout: 10 * time.Second}

	// alice signs up and is logged in right away
	status, resp := doRequest(t, alice, "POST", "/auth",
		`{"name": "Alice A", "username": "alice", "password": "alice-pass"}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)

	status, resp = doRequest(t, alice, "GET", "/auth/me", "")
	require.Equal(t, http.StatusOK, status)
	aliceUser := resp.Data["user"].(map[string]any)
	assert.Equal(t, "alice", aliceUser["username"])
	assert.NotContains(t, aliceUser, "password_hash")

	// duplicate username is rejected
	status, resp = doRequest(t, newClient(t), "POST", "/auth",
		`{"name": "Fake Alice", "username": "alice", "password": "other-pass"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	// alice writes a blog
	status, resp = doRequest(t, alice, "POST", "/blogs",
		`{"title": "Hello World", "content": "My very first post."}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)
	blogID := int(resp.Data["blog"].(map[string]any)["id"].(float64))
	require.NotZero(t, blogID)

	// the feed is public
	status, resp = doRequest(t, anonymous, "GET", "/blogs", "")
	require.Equal(t, http.StatusOK, status)
	blogs := resp.Data["blogs"].([]any)
	require.Len(t, blogs, 1)
	feedItem := blogs[0].(map[string]any)
	assert.Equal(t, "Hello World", feedItem["title"])
	assert.Equal(t, float64(0), feedItem["comments_count"])
	assert.Equal(t, "alice", feedItem["author"].(map[string]any)["username"])

	// anonymous visitors cannot post
	status, resp = doRequest(t, anonymous, "POST", "/blogs",
		`{"title": "Sneaky", "content": "no session here"}`)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	// bob joins and leaves a comment
	status, _ = doRequest(t, bob, "POST", "/auth",
		`{"name": "Bob B", "username": "bob", "password": "bob-pass"}`)
	require.Equal(t, http.StatusOK, status)

	status, resp = doRequest(t, bob, "POST", "/comments",
		fmt.Sprintf(`{"comment": "Nice first post!", "blog_id": %d}`, blogID))
	require.Equal(t, http.StatusOK, status)
	commentID := int(resp.Data["comment"].(map[string]any)["id"].(float64))

	// the comment shows up in the blog detail, with its author
	status, resp = doRequest(t, anonymous, "GET", fmt.Sprintf("/blogs/%d", blogID), "")
	require.Equal(t, http.StatusOK, status)
	blogDetail := resp.Data["blog"].(map[string]any)
	comments := blogDetail["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].(map[string]any)["author"].(map[string]any)["username"])

	// bob cannot touch alice's blog
	status, resp = doRequest(t, bob, "PUT", fmt.Sprintf("/blogs/%d", blogID),
		`{"title": "Hijacked", "content": "mine now"}`)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	status, resp = doRequest(t, bob, "DELETE", fmt.Sprintf("/blogs/%d", blogID), "")
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	// a missing blog is not found, not forbidden
	status, resp = doRequest(t, bob, "PUT", "/blogs/99999",
		`{"title": "x", "content": "y"}`)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	// alice cannot delete bob's comment
	status, resp = doRequest(t, alice, "DELETE", fmt.Sprintf("/comments/%d", commentID), "")
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	// but alice can edit her own blog
	status, resp = doRequest(t, alice, "PUT", fmt.Sprintf("/blogs/%d", blogID),
		`{"title": "Hello World, v2", "content": "Updated."}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)

	// wrong password and unknown user read the same
	status, resp = doRequest(t, newClient(t), "POST", "/auth/login",
		`{"username": "alice", "password": "wrong"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	wrongPassMsg := resp.Error.Message

	status, resp = doRequest(t, newClient(t), "POST", "/auth/login",
		`{"username": "nobody", "password": "wrong"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	assert.Equal(t, wrongPassMsg, resp.Error.Message)

	// bob removes his own comment
	status, resp = doRequest(t, bob, "DELETE", fmt.Sprintf("/comments/%d", commentID), "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)

	// logout kills the session server-side
	status, resp = doRequest(t, alice, "POST", "/auth/logout", "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)

	status, resp = doRequest(t, alice, "GET", "/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	status, resp = doRequest(t, alice, "DELETE", fmt.Sprintf("/blogs/%d", blogID), "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	// back in, and the blog can go
	status, _ = doRequest(t, alice, "POST", "/auth/login",
		`{"username": "alice", "password": "alice-pass"}`)
	require.Equal(t, http.StatusOK, status)

	status, resp = doRequest(t, alice, "DELETE", fmt.Sprintf("/blogs/%d", blogID), "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.OK)

	status, resp = doRequest(t, anonymous, "GET", "/blogs", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp.Data["blogs"].([]any))

	// unknown paths get the envelope too
	status, resp = doRequest(t, anonymous, "GET", "/no/such/path", "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}
