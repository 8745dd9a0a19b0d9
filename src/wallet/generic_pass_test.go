package wallet

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/jws"
	"google.golang.org/api/option"
	walletobjects "google.golang.org/api/walletobjects/v1"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func serviceAccountJSON(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	der, err := x509.MarshalPKCS8PrivateKey(testKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	raw, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "expense-test",
		"private_key_id": "key-1",
		"private_key":    string(pemKey),
		"client_email":   "wallet@expense-test.iam.gserviceaccount.com",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)
	return raw, testKey
}

func decodeClaims(t *testing.T, token string) map[string]any {
	t.Helper()
	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)
	body, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)
	claims := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &claims))
	return claims
}

func newTestPass(t *testing.T) (*GenericPass, *rsa.PrivateKey) {
	raw, key := serviceAccountJSON(t)
	gp, err := NewGenericPassFromJSON(Config{IssuerID: "3388000000022958565", Origins: []string{"www.example.com"}}, raw, nil)
	require.NoError(t, err)
	gp.newID = func() string { return "object-1" }
	return gp, key
}

func TestGenericPassToken(t *testing.T) {
	gp, key := newTestPass(t)

	token, err := gp.Issue(context.Background(), "Groceries", "Corner Shop", []LineItem{
		{Name: "Milk", Value: "1.20 EUR"},
		{Name: "Bread", Value: "2.10 EUR"},
	})
	require.NoError(t, err)
	require.NoError(t, jws.Verify(token, &key.PublicKey))

	claims := decodeClaims(t, token)
	assert.Equal(t, "wallet@expense-test.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, "google", claims["aud"])
	assert.Equal(t, "savetowallet", claims["typ"])
	assert.Equal(t, []any{"www.example.com"}, claims["origins"])

	payload := claims["payload"].(map[string]any)
	classes := payload["genericClasses"].([]any)
	require.Len(t, classes, 1)
	assert.Equal(t, "3388000000022958565.generic", classes[0].(map[string]any)["id"])

	objects := payload["genericObjects"].([]any)
	require.Len(t, objects, 1)
	obj := objects[0].(map[string]any)
	assert.Equal(t, "3388000000022958565.object-1", obj["id"])
	assert.Equal(t, "3388000000022958565.generic", obj["classId"])
	assert.Equal(t, "ACTIVE", obj["state"])
	assert.Equal(t, "#4285f4", obj["hexBackgroundColor"])
	title := obj["cardTitle"].(map[string]any)["defaultValue"].(map[string]any)
	assert.Equal(t, "Groceries", title["value"])
	assert.Equal(t, "en-US", title["language"])

	modules := obj["textModulesData"].([]any)
	require.Len(t, modules, 2)
	first := modules[0].(map[string]any)
	assert.Equal(t, "Milk", first["header"])
	assert.Equal(t, "1.20 EUR", first["body"])
	assert.Equal(t, "item_1", first["id"])
}

func TestGenericPassTokenValidation(t *testing.T) {
	gp, _ := newTestPass(t)
	_, err := gp.Token("", "header", nil)
	assert.ErrorIs(t, err, ErrOperationFailed)
	_, err = gp.Token("title", " ", nil)
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestNewGenericPassFromJSONErrors(t *testing.T) {
	raw, _ := serviceAccountJSON(t)
	_, err := NewGenericPassFromJSON(Config{}, raw, nil)
	assert.ErrorIs(t, err, ErrOperationFailed)

	_, err = NewGenericPassFromJSON(Config{IssuerID: "1"}, []byte(`{"type":"authorized_user"}`), nil)
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestSaveURL(t *testing.T) {
	assert.Equal(t, "https://pay.google.com/gp/v/save/abc", SaveURL("abc"))
}

func TestEnsureClassCreatesMissingClass(t *testing.T) {
	var (
		mu       sync.Mutex
		inserted string
		gets     int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			gets++
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"class not found"}}`))
		case http.MethodPost:
			var body walletobjects.GenericClass
			_ = json.NewDecoder(r.Body).Decode(&body)
			inserted = body.Id
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	svc, err := walletobjects.NewService(context.Background(), option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	gp, _ := newTestPass(t)
	require.NoError(t, gp.WithService(svc).EnsureClass(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, gets)
	assert.Equal(t, "3388000000022958565.generic", inserted)
}

func TestEnsureClassSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	}))
	defer srv.Close()

	svc, err := walletobjects.NewService(context.Background(), option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	gp, _ := newTestPass(t)
	err = gp.WithService(svc).EnsureClass(context.Background())
	assert.ErrorIs(t, err, ErrOperationFailed)

	gp.service = nil
	assert.True(t, errors.Is(gp.EnsureClass(context.Background()), ErrOperationFailed))
}
