package wallet

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jws"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	walletobjects "google.golang.org/api/walletobjects/v1"
)

const (
	defaultClassSuffix = "generic"
	defaultBackground  = "#4285f4"
	defaultLanguage    = "en-US"
)

// Config describes the issuer account and the look of issued passes.
type Config struct {
	IssuerID        string
	ClassSuffix     string
	Origins         []string
	BackgroundColor string
	Language        string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.ClassSuffix) == "" {
		c.ClassSuffix = defaultClassSuffix
	}
	if strings.TrimSpace(c.BackgroundColor) == "" {
		c.BackgroundColor = defaultBackground
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = defaultLanguage
	}
	return c
}

// ClassID is the generic class every pass object points at.
func (c Config) ClassID() string {
	return c.IssuerID + "." + c.ClassSuffix
}

// GenericPass signs "save to wallet" JWTs that create a generic class and a
// new generic object when the user opens the link.
type GenericPass struct {
	cfg     Config
	email   string
	keyID   string
	key     *rsa.PrivateKey
	service *walletobjects.Service
	newID   func() string
	logger  *slog.Logger
}

// NewGenericPass loads the service account key file and connects to the
// Wallet objects API with it.
func NewGenericPass(ctx context.Context, cfg Config, credentialsFile string, logger *slog.Logger) (*GenericPass, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, opError("load credentials", err)
	}
	gp, err := NewGenericPassFromJSON(cfg, raw, logger)
	if err != nil {
		return nil, err
	}
	svc, err := walletobjects.NewService(ctx,
		option.WithCredentialsJSON(raw),
		option.WithScopes(walletobjects.WalletObjectIssuerScope),
	)
	if err != nil {
		return nil, opError("wallet client", err)
	}
	gp.service = svc
	return gp, nil
}

// NewGenericPassFromJSON builds a signer from service account JSON without an
// API client; EnsureClass needs WithService.
func NewGenericPassFromJSON(cfg Config, credentialsJSON []byte, logger *slog.Logger) (*GenericPass, error) {
	if strings.TrimSpace(cfg.IssuerID) == "" {
		return nil, opError("configure", errors.New("issuer id is required"))
	}
	jwtCfg, err := google.JWTConfigFromJSON(credentialsJSON, walletobjects.WalletObjectIssuerScope)
	if err != nil {
		return nil, opError("load credentials", err)
	}
	key, err := parseRSAKey(jwtCfg.PrivateKey)
	if err != nil {
		return nil, opError("load credentials", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenericPass{
		cfg:    cfg.withDefaults(),
		email:  jwtCfg.Email,
		keyID:  jwtCfg.PrivateKeyID,
		key:    key,
		newID:  uuid.NewString,
		logger: logger,
	}, nil
}

// WithService attaches a Wallet objects API client.
func (g *GenericPass) WithService(svc *walletobjects.Service) *GenericPass {
	g.service = svc
	return g
}

// Issue implements Issuer.
func (g *GenericPass) Issue(_ context.Context, title, header string, items []LineItem) (string, error) {
	return g.Token(title, header, items)
}

// Token signs a JWT that creates the class and a fresh pass object.
func (g *GenericPass) Token(title, header string, items []LineItem) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", opError("issue", errors.New("title is required"))
	}
	if strings.TrimSpace(header) == "" {
		return "", opError("issue", errors.New("header is required"))
	}
	objectID := g.cfg.IssuerID + "." + g.newID()

	claims := &jws.ClaimSet{
		Iss: g.email,
		Aud: "google",
		Typ: "savetowallet",
		PrivateClaims: map[string]any{
			"origins": g.origins(),
			"payload": map[string]any{
				"genericClasses": []any{map[string]any{"id": g.cfg.ClassID()}},
				"genericObjects": []any{g.object(objectID, title, header, items)},
			},
		},
	}
	hdr := &jws.Header{Algorithm: "RS256", Typ: "JWT", KeyID: g.keyID}
	token, err := jws.Encode(hdr, claims, g.key)
	if err != nil {
		return "", opError("sign", err)
	}
	g.logger.Debug("wallet pass signed", "object_id", objectID, "items", len(items))
	return token, nil
}

func (g *GenericPass) origins() []string {
	if len(g.cfg.Origins) == 0 {
		return []string{}
	}
	return append([]string(nil), g.cfg.Origins...)
}

func (g *GenericPass) object(id, title, header string, items []LineItem) map[string]any {
	modules := make([]any, 0, len(items))
	for i, item := range items {
		modules = append(modules, map[string]any{
			"id":     fmt.Sprintf("item_%d", i+1),
			"header": item.Name,
			"body":   item.Value,
		})
	}
	return map[string]any{
		"id":                 id,
		"classId":            g.cfg.ClassID(),
		"state":              "ACTIVE",
		"textModulesData":    modules,
		"cardTitle":          g.localized(title),
		"header":             g.localized(header),
		"hexBackgroundColor": g.cfg.BackgroundColor,
	}
}

func (g *GenericPass) localized(value string) map[string]any {
	return map[string]any{
		"defaultValue": map[string]any{"language": g.cfg.Language, "value": value},
	}
}

// EnsureClass creates the generic class on the issuer account if it does not
// exist yet.
func (g *GenericPass) EnsureClass(ctx context.Context) error {
	if g.service == nil {
		return opError("ensure class", errors.New("wallet api client is not configured"))
	}
	classID := g.cfg.ClassID()
	_, err := g.service.Genericclass.Get(classID).Context(ctx).Do()
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return opError("ensure class", err)
	}
	if _, err := g.service.Genericclass.Insert(&walletobjects.GenericClass{Id: classID}).Context(ctx).Do(); err != nil {
		return opError("ensure class", err)
	}
	g.logger.Info("wallet class created", "class_id", classID)
	return nil
}

func parseRSAKey(pemKey []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	der := pemKey
	if block != nil {
		der = block.Bytes
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

var _ Issuer = (*GenericPass)(nil)
