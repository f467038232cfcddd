package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/llm"
	"github.com/abhisek/cognigen/internal/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run a local in-memory learning API",
	Long: "Serves every learning API endpoint from memory. Content is generated through the " +
		"configured LLM provider, or offline placeholders with --offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = e.cfg.SandboxAddr
		}

		var provider llm.Provider
		if offline, _ := cmd.Flags().GetBool("offline"); !offline {
			provider, err = llm.NewProvider(ctx, llm.ConfigFromEnv(), e.store.EventRepo(), e.log)
			if err != nil {
				fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
				fmt.Fprintln(os.Stderr, "Generating offline placeholder content.")
				provider = nil
			}
		}

		srv := sandbox.New(
			sandbox.WithLogger(e.log.With("component", "sandbox")),
			sandbox.WithGenerator(sandbox.NewGenerator(provider, e.log)),
			sandbox.WithGenerateTimeout(e.cfg.GenerateTimeout),
		)
		if email, _ := cmd.Flags().GetString("user"); email != "" {
			password, _ := cmd.Flags().GetString("password")
			if _, err := srv.AddUser("Sandbox User", email, password); err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
		}

		hs := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			errc <- hs.ListenAndServe()
		}()
		fmt.Printf("Sandbox learning API on http://%s/api (%s)\n", addr, sandbox.APIVersion)
		e.log.Info("sandbox listening", "addr", addr)

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			e.log.Warn("sandbox shutdown", "error", err)
		}
		srv.Wait()
		return nil
	},
}

func init() {
	sandboxCmd.Flags().String("addr", "", "Listen address (overrides COGNIGEN_SANDBOX_ADDR)")
	sandboxCmd.Flags().Bool("offline", false, "Skip the LLM provider and generate placeholder content")
	sandboxCmd.Flags().String("user", "", "Seed an account with this email")
	sandboxCmd.Flags().String("password", "sandbox", "Password of the seeded account")
}
