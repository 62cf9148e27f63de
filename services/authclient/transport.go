package authclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/campus/core/session"
)

// do sends one request and decodes the envelope's data into out.
// A 401 on a protected call triggers one refresh and one retry.
func (c *Client) do(ctx context.Context, method rest.Method, path string, body, out interface{}) (string, error) {
	res, err := c.send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusUnauthorized || noRefresh[path] {
		return decode(res, out)
	}

	if _, err := c.Refresh(ctx); err != nil {
		return "", c.expire(ctx, err)
	}
	if res, err = c.send(ctx, method, path, body); err != nil {
		return "", err
	}
	if res.StatusCode == http.StatusUnauthorized {
		return "", c.expire(ctx, errors.Errorf("%s %s rejected after refresh", method, path))
	}
	return decode(res, out)
}

func (c *Client) send(ctx context.Context, method rest.Method, path string, body interface{}) (*rest.Response, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s body", path)
		}
		req.Body = b
		req.Headers["Content-Type"] = "application/json"
	}

	token, err := c.tokens.Get(ctx, session.TokenAccess)
	if err != nil {
		return nil, errors.Wrap(err, "reading stored token")
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: string(method), Path: path, Err: err}
	}
	return res, nil
}

// decode normalizes any response into the envelope.
func decode(res *rest.Response, out interface{}) (string, error) {
	var env envelope
	if err := json.Unmarshal([]byte(res.Body), &env); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return "", &APIError{Status: res.StatusCode}
		}
		return "", errors.Wrapf(session.ErrMalformedResponse, "status %d", res.StatusCode)
	}
	if !env.Success || res.StatusCode >= http.StatusBadRequest {
		return "", &APIError{Status: res.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", errors.Wrap(session.ErrMalformedResponse, err.Error())
		}
	}
	return env.Message, nil
}
