package redopssdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"redops/internal/domain"
)

// Login posts credentials and returns the principal from the body and the
// bearer token from the Authorization response header.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.User, string, error) {
	var raw json.RawMessage
	header, err := c.do(ctx, http.MethodPost, "auth/login", creds, &raw, requestOptions{anonymous: true})
	if err != nil {
		return domain.User{}, "", err
	}
	token := StripBearer(header.Get("Authorization"))
	if token == "" {
		return domain.User{}, "", &AuthError{Reason: "missing token in Authorization header"}
	}
	if len(raw) == 0 || string(raw) == "null" {
		return domain.User{}, "", &AuthError{Reason: "missing principal in response body"}
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, "", &AuthError{Reason: fmt.Sprintf("malformed principal: %v", err)}
	}
	if user.ID == "" {
		return domain.User{}, "", &AuthError{Reason: "principal has no id"}
	}
	return user, token, nil
}
