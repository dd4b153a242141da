package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spec-kit/bus-tracking/internal/apiclient"
	"github.com/spec-kit/bus-tracking/internal/config"
	"github.com/spec-kit/bus-tracking/internal/session"
	"github.com/spec-kit/bus-tracking/internal/validation"
)

// newClient builds an API client over the on-disk session. Navigation is
// reported on the command's error stream.
func newClient(cmd *cobra.Command) *apiclient.Client {
	cfg := config.LoadClient()
	store := session.NewStore(session.NewFileStorage(cfg.SessionFile))
	nav := apiclient.NavigatorFunc(func(path string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "session ended; redirected to %s\n", path)
	})
	return apiclient.New(cfg.APIURL, store, nav,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
	)
}

// explain turns client errors into a message for the terminal.
func explain(w io.Writer, err error) error {
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		printFields(w, fields)
		return errors.New("invalid input")
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		printFields(w, apiErr.Fields)
		return errors.New(apiErr.Message)
	}
	return err
}

func printFields(w io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
	}
}
