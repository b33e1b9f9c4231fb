// Package main provides the bootstrap CLI. The register API route requires
// an already authenticated admin, so the very first admin (and any break-glass
// account) is created here, directly against the stores.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/opsgate/opsgate/internal/apperr"
	"github.com/opsgate/opsgate/internal/config"
	"github.com/opsgate/opsgate/internal/database"
	"github.com/opsgate/opsgate/internal/kv"
	"github.com/opsgate/opsgate/internal/model"
	"github.com/opsgate/opsgate/internal/validate"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "create-admin" {
		fmt.Fprintf(os.Stderr, "usage: %s create-admin\n", os.Args[0])
		os.Exit(2)
	}

	if err := createAdmin(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func createAdmin() error {
	reader := bufio.NewReader(os.Stdin)

	email, err := prompt(reader, "email")
	if err != nil {
		return err
	}
	username, err := prompt(reader, "username")
	if err != nil {
		return err
	}
	password, err := prompt(reader, "password")
	if err != nil {
		return err
	}

	errs := validate.Validate(
		map[string]any{"email": email, "username": username, "password": password},
		map[string]validate.Field{
			"email":    validate.EmailField,
			"username": validate.UsernameField,
			"password": validate.PasswordField,
		})
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%v\n", e)
		}
		return errs[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	admin := model.NewAdmin(db, kv.New(rdb))
	id, err := admin.Create(context.Background(), email, username, password)
	if err != nil {
		return apperr.From(err)
	}

	fmt.Printf("Created admin ID: %d\n", id)
	return nil
}

// prompt reads one non-empty line, re-asking until it gets one.
func prompt(reader *bufio.Reader, field string) (string, error) {
	for {
		fmt.Printf("%s: ", field)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", field, err)
		}
		if value := strings.TrimSpace(line); value != "" {
			return value, nil
		}
	}
}
