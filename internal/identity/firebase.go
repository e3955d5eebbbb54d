package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseProvider verifies Firebase ID tokens and updates Firebase user records.
type FirebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider builds the Admin SDK auth client from service account
// fields held in the environment.
//
// The private key in .env has literal "\n" strings, so we replace them with actual newlines.
func NewFirebaseProvider(ctx context.Context, projectID, clientEmail, privateKey string) (*FirebaseProvider, error) {
	if projectID == "" || clientEmail == "" || privateKey == "" {
		return nil, fmt.Errorf("missing Firebase service account configuration")
	}
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get auth client: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, raw string) (*Identity, error) {
	token, err := p.client.VerifyIDToken(ctx, raw)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", ErrInvalidToken)
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	return &Identity{
		SubjectID: token.UID,
		Email:     email,
		Name:      name,
		Picture:   picture,
	}, nil
}

func (p *FirebaseProvider) UpdateProfile(ctx context.Context, uid, name, photoURL string) error {
	update := (&auth.UserToUpdate{}).DisplayName(name)
	if photoURL != "" {
		update = update.PhotoURL(photoURL)
	}
	if _, err := p.client.UpdateUser(ctx, uid, update); err != nil {
		return fmt.Errorf("update firebase user %s: %w", uid, err)
	}
	return nil
}
