package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/ngsi"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.BrokerConfig{
		BaseURL:            baseURL,
		CreatePath:         "/ngsi-ld/v1/entities",
		UpdatePathTemplate: "/ngsi-ld/v1/entities/%s/attrs",
	}, 5*time.Second, zerolog.Nop())
}

func TestCreateEntityPostsLinkedData(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	entity := map[string]string{"id": "urn:ngsi-ld:TrafficIncident:1", "type": "TrafficIncident"}

	require.NoError(t, c.CreateEntity(context.Background(), entity))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/ngsi-ld/v1/entities", gotPath)
	assert.Equal(t, ngsi.ContentType, gotContentType)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "urn:ngsi-ld:TrafficIncident:1", decoded["id"])
}

func TestPatchAttributesAddressesEntity(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	patch := ngsi.NewBoolPatch("congested", true, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))

	require.NoError(t, c.PatchAttributes(context.Background(), "urn:ngsi-ld:Camera:42", patch))

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/ngsi-ld/v1/entities/urn:ngsi-ld:Camera:42/attrs", gotPath)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	require.Contains(t, decoded, "congested")
	var prop ngsi.Property
	require.NoError(t, json.Unmarshal(decoded["congested"], &prop))
	assert.Equal(t, "Property", prop.Type)
	assert.Equal(t, true, prop.Value)
}

func TestNonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"title":"Already Exists"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.CreateEntity(context.Background(), map[string]string{"id": "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "Already Exists")
}

func TestUnreachableBrokerIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv.URL)
	err := c.CreateEntity(context.Background(), map[string]string{"id": "x"})
	assert.Error(t, err)
}
