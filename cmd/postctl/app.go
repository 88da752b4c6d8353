package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"postboard/internal/client"
	"postboard/internal/client/state"
)

const defaultAPIURL = "http://localhost:8080"

type app struct {
	apiURL    string
	token     string
	tokenFile string
	verbose   bool

	in     *bufio.Reader
	out    io.Writer
	logger *logrus.Logger

	client *client.Client
	store  *state.Store
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logrus.New(),
	}
	a.logger.SetOutput(errOut)
	a.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	root := &cobra.Command{
		Use:           "postctl",
		Short:         "Manage your posts on a postboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", "", "server base URL (default $POSTBOARD_API_URL or "+defaultAPIURL+")")
	flags.StringVar(&a.token, "token", "", "session token (default: saved login)")
	flags.StringVar(&a.tokenFile, "token-file", "", "where the session token is saved (default $HOME/.postboard/token)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every dispatched action")
	_ = flags.MarkHidden("token-file")

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.uploadCmd(),
	)

	return root
}

func (a *app) setup() error {
	if a.verbose {
		a.logger.SetLevel(logrus.DebugLevel)
	} else {
		a.logger.SetLevel(logrus.WarnLevel)
	}

	if a.apiURL == "" {
		a.apiURL = os.Getenv("POSTBOARD_API_URL")
	}
	if a.apiURL == "" {
		a.apiURL = defaultAPIURL
	}

	if a.tokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		a.tokenFile = filepath.Join(home, ".postboard", "token")
	}
	if a.token == "" {
		token, err := a.loadToken()
		if err != nil {
			return err
		}
		a.token = token
	}

	c, err := client.New(a.apiURL, client.WithToken(a.token))
	if err != nil {
		return err
	}
	a.client = c
	a.store = state.NewStore(c)
	a.store.Subscribe(func(action state.Action, s state.State) {
		entry := a.logger.WithFields(logrus.Fields{
			"action":  action.Kind.String(),
			"phase":   action.Phase.String(),
			"loading": s.Loading,
			"posts":   len(s.Posts),
		})
		if s.Error != "" {
			entry = entry.WithField("error", s.Error)
		}
		entry.Debug("dispatch")
	})
	return nil
}

func (a *app) loadToken() (string, error) {
	data, err := os.ReadFile(a.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(a.tokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (a *app) clearToken() error {
	if err := os.Remove(a.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// rejected turns the store's error string into the command error.
func (a *app) rejected() error {
	msg := a.store.State().Error
	if msg == "" {
		msg = state.FallbackError
	}
	return errors.New(msg)
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
