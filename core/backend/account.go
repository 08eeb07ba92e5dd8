package backend

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
	"github.com/relabs-tech/sakamichi/core/saga"
	"github.com/relabs-tech/sakamichi/core/schema"
)

// AdminLabel is the label which grants write access to all documents and files
const AdminLabel = "admin"

// Messages of the account routes
const (
	SignedMessage    = "Success to create admin, you can login now"
	LoginMessage     = "Success at login secret will put at your browser"
	LoggedOutMessage = "Logged out"
)

func (b *Backend) createAccountResource(router *mux.Router) {
	groupName := "account"
	nillog := logger.Default()
	nillog.Debugln("create account routes")

	// sign creates an admin account. Creation and labelling are two calls, a
	// failed labelling leaves an account without the admin label behind.
	sign := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		data, err := b.readBody(r, schema.AdminSign)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		email, _ := data["email"].(string)
		password, _ := data["password"].(string)
		name, _ := data["name"].(string)

		user, err := b.factory.Public().Account().Create(ctx, appwrite.UniqueID(), email, password, name)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}

		users := b.factory.Admin().Users()
		err = b.runner.Then(ctx,
			saga.Effect{Kind: "user", Resource: "users", ID: user.ID, Detail: "add label " + AdminLabel},
			func(ctx context.Context) error { return users.Delete(ctx, user.ID) },
			func(ctx context.Context) error {
				_, err := users.UpdateLabels(ctx, user.ID, []string{AdminLabel})
				return err
			})
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		logger.FromContext(ctx).WithField("user", user.ID).Infoln("created admin account")
		writeJSON(w, r, SignedMessage)
	}

	login := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		data, err := b.readBody(r, schema.AdminLogin)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		email, _ := data["email"].(string)
		password, _ := data["password"].(string)

		verified, err := b.factory.Public().Account().CreateEmailPasswordSession(ctx, email, password)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		session, err := b.factory.Admin().Users().CreateSession(ctx, verified.UserID)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		if err := b.gate.Mint(w, session.Secret); err != nil {
			httperr.Write(w, r, httperr.New(http.StatusInternalServerError, "Error:S500 cannot create session cookie", "cookie_error"))
			return
		}
		writeJSON(w, r, map[string]string{"message": LoginMessage})
	}

	logout := func(w http.ResponseWriter, r *http.Request) {
		client, _ := b.session(r.Context())
		if err := client.Account().DeleteSession(r.Context(), "current"); err != nil {
			httperr.Write(w, r, err)
			return
		}
		b.gate.Clear(w)
		writeJSON(w, r, map[string]string{"message": LoggedOutMessage})
	}

	nillog.Debugln("  handle account routes: /admin/sign /admin/login /admin/logout")
	b.handle(router, groupName, "/admin/sign", http.MethodPost, http.HandlerFunc(sign))
	b.handle(router, groupName, "/admin/login", http.MethodPost, http.HandlerFunc(login))
	b.handle(router, groupName, "/admin/logout", http.MethodPost, b.gate.RequireFunc(logout))
}
