// Package config resolves gemo credentials and environment settings.
package config

import (
	"errors"
	"os"
)

// Credentials selects between the Gemini developer API and Vertex AI.
// Exactly one of the two is used: APIKey when set, otherwise the
// Vertex project/location pair.
type Credentials struct {
	APIKey         string
	VertexProject  string
	VertexLocation string
}

// Vertex reports whether the Vertex AI endpoint should be used.
func (c Credentials) Vertex() bool {
	return c.APIKey == "" && c.VertexProject != "" && c.VertexLocation != ""
}

// ErrNoCredentials is returned when neither GEMINI_API_KEY nor the
// VERTEX_PROJECT/VERTEX_LOCATION pair is present in the environment.
var ErrNoCredentials = errors.New("config: set GEMINI_API_KEY or VERTEX_PROJECT and VERTEX_LOCATION")

// LoadCredentials reads model API credentials from the environment.
func LoadCredentials() (Credentials, error) {
	c := Credentials{
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: os.Getenv("VERTEX_LOCATION"),
	}
	if c.APIKey == "" && !c.Vertex() {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}

// Getenv returns the named environment variable or the fallback if unset.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
