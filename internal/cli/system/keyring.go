package system

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/keyring"
	"github.com/julianstephens/abstain/internal/storage"
)

// KeyringSetCmd stores the PostgreSQL connection string used for streak data
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	connStr := strings.TrimSpace(cmd.ConnectionString)
	if !isPostgres(connStr) && !strings.Contains(connStr, "host=") {
		return errors.New("connection string must be a postgres:// URL or a key=value DSN with host=")
	}

	if _, err := storage.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so embedded credentials are accepted here
		ctx.Println("⚠️  Connection string contains a password; it is stored encrypted in the OS keyring.")
	}

	if err := keyring.SetConnectionString(connStr); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Printf("✓ Stored %s in the OS keyring\n", maskPassword(connStr))
	if os.Getenv(constants.ConnectionEnvVar) != "" {
		ctx.Printf("  %s is set and takes precedence over the keyring\n", constants.ConnectionEnvVar)
	} else {
		ctx.Println("  It is used whenever --config names a postgres:// database")
	}
	return nil
}

// KeyringGetCmd shows the stored connection string with its password masked
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'abstain keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	ctx.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes the stored connection string
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	ctx.Println("✓ Connection string deleted from OS keyring")
	if isPostgres(ctx.Config) {
		ctx.Printf("  Streak data now connects via %s\n", describeConnection(ctx.Config))
	}
	return nil
}

// KeyringStatusCmd reports keyring availability and which connection the
// current --config resolves to
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}

	ctx.Println("Keyring Status:")
	ctx.Println("  OS keyring:        available")
	switch stored, err := keyring.GetConnectionString(); {
	case err == nil:
		ctx.Printf("  Stored connection: %s\n", maskPassword(stored))
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("  Stored connection: none")
	default:
		return fmt.Errorf("failed to read keyring: %w", err)
	}
	ctx.Printf("  Active connection: %s\n", describeConnection(ctx.Config))
	return nil
}

// describeConnection names the source ResolveConnectionString picks for config
func describeConnection(config string) string {
	if !isPostgres(config) {
		if config == "" {
			return "none (no --config given)"
		}
		return fmt.Sprintf("none (%s is not a PostgreSQL database)", config)
	}

	connStr, source := keyring.ResolveConnectionString(config)
	switch source {
	case keyring.SourceEnv:
		return fmt.Sprintf("%s environment variable (%s)", constants.ConnectionEnvVar, maskPassword(connStr))
	case keyring.SourceKeyring:
		return fmt.Sprintf("OS keyring (%s)", maskPassword(connStr))
	default:
		return fmt.Sprintf("--config with password from .pgpass (%s)", maskPassword(connStr))
	}
}

func isPostgres(config string) bool {
	return strings.HasPrefix(config, constants.PrefixPostgres) || strings.HasPrefix(config, constants.PrefixPostgreSQL)
}

// maskPassword hides the password in a URL or key=value connection string
func maskPassword(connStr string) string {
	if isPostgres(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			// Unparseable userinfo is hidden whole
			scheme, rest, _ := strings.Cut(connStr, "://")
			if at := strings.LastIndex(rest, "@"); at != -1 {
				return scheme + "://****" + rest[at:]
			}
			return connStr
		}
		if u.User == nil {
			return connStr
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
		}
		return u.String()
	}

	fields := strings.Fields(connStr)
	for i, field := range fields {
		if strings.HasPrefix(field, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
