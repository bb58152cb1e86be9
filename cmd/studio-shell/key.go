// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenstudio/lib/cachekey"
	"github.com/bureau-foundation/tokenstudio/lib/sealed"
	"github.com/bureau-foundation/tokenstudio/lib/secret"
)

func runKey(args []string, std streams) error {
	if len(args) < 1 {
		printKeyUsage(std.stderr)
		return fmt.Errorf("key subcommand required")
	}

	switch args[0] {
	case "status":
		return runKeyStatus(args[1:], std)
	case "escrow":
		return runKeyEscrow(args[1:], std)
	case "restore":
		return runKeyRestore(args[1:], std)
	case "-h", "--help", "help":
		printKeyUsage(std.stdout)
		return nil
	default:
		printKeyUsage(std.stderr)
		return fmt.Errorf("unknown key subcommand: %q", args[0])
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: studio-shell key <subcommand> [flags]

Subcommands:
  status      Show what the keyring and the key file hold (read-only)
  escrow      Encrypt the cache key to age recipients for backup
  restore     Decrypt an escrowed cache key and store it
`)
}

// runKeyStatus reports both stores without modifying either.
func runKeyStatus(args []string, std streams) error {
	var options commonOptions
	var jsonOutput bool
	flags := pflag.NewFlagSet("key status", pflag.ContinueOnError)
	options.register(flags)
	flags.BoolVar(&jsonOutput, "json", false, "print the status as JSON")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}
	status := app.provisioner().Status()

	if jsonOutput {
		encoder := json.NewEncoder(std.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}
	renderKeyStatus(std.stdout, status)
	return nil
}

func renderKeyStatus(w io.Writer, status cachekey.Status) {
	renderer := lipgloss.NewRenderer(w)
	label := renderer.NewStyle().Bold(true).Width(9)
	faint := renderer.NewStyle().Faint(true)
	stateStyle := func(state cachekey.State) lipgloss.Style {
		switch state {
		case cachekey.StateValid:
			return renderer.NewStyle().Foreground(lipgloss.Color("2"))
		case cachekey.StateInvalid, cachekey.StateUnavailable:
			return renderer.NewStyle().Foreground(lipgloss.Color("1"))
		default:
			return renderer.NewStyle().Foreground(lipgloss.Color("3"))
		}
	}

	for _, location := range []struct {
		name   string
		status cachekey.LocationStatus
	}{
		{"keyring", status.Keyring},
		{"file", status.File},
	} {
		fmt.Fprintf(w, "%s %s %s", label.Render(location.name),
			stateStyle(location.status.State).Render(string(location.status.State)),
			faint.Render(location.status.Location))
		if location.status.Fingerprint != "" {
			fmt.Fprintf(w, " %s", location.status.Fingerprint)
		}
		if location.status.Error != "" {
			fmt.Fprintf(w, " (%s)", location.status.Error)
		}
		fmt.Fprintln(w)
	}
}

// runKeyEscrow seals the provisioned cache key to one or more age
// recipients. The key is created if no store holds one yet.
func runKeyEscrow(args []string, std streams) error {
	var options commonOptions
	var recipients []string
	var generateIdentity, outputPath string
	flags := pflag.NewFlagSet("key escrow", pflag.ContinueOnError)
	options.register(flags)
	flags.StringArrayVarP(&recipients, "recipient", "r", nil, "age recipient (age1...); repeatable")
	flags.StringVar(&generateIdentity, "generate-identity", "", "generate an age identity, write it to this path, and add it as a recipient")
	flags.StringVarP(&outputPath, "output", "o", "", "write the escrowed key here instead of stdout")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}

	for _, recipient := range recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return fmt.Errorf("invalid recipient: %w", err)
		}
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}

	if generateIdentity != "" {
		keypair, err := sealed.GenerateKeypair()
		if err != nil {
			return err
		}
		err = writePrivateFile(generateIdentity, []byte(keypair.PrivateKey.String()+"\n"))
		publicKey := keypair.PublicKey
		keypair.Close()
		if err != nil {
			return fmt.Errorf("writing identity: %w", err)
		}
		fmt.Fprintf(std.stderr, "# identity written to %s\n# recipient: %s\n", generateIdentity, publicKey)
		recipients = append(recipients, publicKey)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("at least one --recipient or --generate-identity is required")
	}

	material := app.provisioner().Provision()
	defer material.Close()

	escrowed, err := cachekey.Escrow(material, recipients)
	if err != nil {
		return err
	}
	app.logger.Info("cache key escrowed",
		"provenance", material.Provenance,
		"fingerprint", material.Fingerprint(),
		"recipients", len(recipients),
	)

	if outputPath == "" {
		_, err := std.stdout.Write(escrowed)
		return err
	}
	return writePrivateFile(outputPath, escrowed)
}

// runKeyRestore decrypts an escrowed key and writes it to the keyring
// or the key file.
func runKeyRestore(args []string, std streams) error {
	var options commonOptions
	var identityPath, inputPath, target string
	var force bool
	flags := pflag.NewFlagSet("key restore", pflag.ContinueOnError)
	options.register(flags)
	flags.StringVarP(&identityPath, "identity", "i", "", "age identity file, or - for stdin (required)")
	flags.StringVar(&inputPath, "input", "-", "escrowed key file, or - for stdin")
	flags.StringVar(&target, "target", "", "where to store the key: keyring or file (default: the preferred store)")
	flags.BoolVar(&force, "force", false, "replace a different key already stored (orphans the cache encrypted under it)")
	if err := parseFlags(flags, args, std.stderr); err != nil {
		return finish(err)
	}
	if identityPath == "" {
		return fmt.Errorf("--identity is required")
	}
	if identityPath == "-" && inputPath == "-" {
		return fmt.Errorf("--identity and --input cannot both read stdin")
	}

	app, err := newShell(options, std)
	if err != nil {
		return err
	}
	provisioner := app.provisioner()

	provenance, err := restoreTarget(target, provisioner.Policy)
	if err != nil {
		return err
	}

	var escrowed []byte
	if inputPath == "-" {
		escrowed, err = io.ReadAll(std.stdin)
	} else {
		escrowed, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("reading escrowed key: %w", err)
	}

	identity, err := secret.ReadFromPath(identityPath, std.stdin)
	if err != nil {
		return fmt.Errorf("reading identity: %w", err)
	}
	defer identity.Close()

	material, err := provisioner.Restore(escrowed, identity, provenance, force)
	if errors.Is(err, cachekey.ErrKeyExists) {
		return fmt.Errorf("%w in %s; pass --force to replace it", err, provenance)
	}
	if err != nil {
		return err
	}
	defer material.Close()

	fmt.Fprintf(std.stdout, "restored %s %s\n", material.Provenance, material.Fingerprint())
	return nil
}

func restoreTarget(target string, policy cachekey.Policy) (cachekey.Provenance, error) {
	switch target {
	case "":
		if policy.UseKeyring {
			return cachekey.ProvenanceKeyring, nil
		}
		return cachekey.ProvenanceFile, nil
	case string(cachekey.ProvenanceKeyring):
		return cachekey.ProvenanceKeyring, nil
	case string(cachekey.ProvenanceFile):
		return cachekey.ProvenanceFile, nil
	default:
		return "", fmt.Errorf("--target must be keyring or file, got %q", target)
	}
}

// writePrivateFile creates path with mode 0600. An existing file is
// never overwritten.
func writePrivateFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
