package util

import (
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

// NewHTTPRequest performs an http call and returns the status code along
// with the raw response body.
func NewHTTPRequest(method string, url string, bodyString string, header map[string]string) (int, string, error) {
	var body *strings.Reader
	if bodyString != "" {
		body = strings.NewReader(bodyString)
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return 0, "", err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}
	return rs.StatusCode, string(bodyBytes), nil
}
