// Command ninepd runs a standalone 9P2000.L server over a TCP listener
// (transport/netconn), for manual testing and for embedding in integration
// tests that want a real process boundary. Grounded on go9p's own
// p9srv.go / p9ufs.go command wiring (flag parsing, Ufs setup, Srv
// start), reworked onto cobra+viper.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/backend/blobstore"
	"github.com/virtio9p/ninep/backend/osfs"
	"github.com/virtio9p/ninep/config"
	"github.com/virtio9p/ninep/srv"
	"github.com/virtio9p/ninep/transport/netconn"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "ninepd",
		Short: "serve a directory over 9P2000.L",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	config.BindFlags(cmd.Flags(), v)
	cmd.Flags().String("listen", "127.0.0.1:5640", "TCP address to listen on")
	_ = v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	entry := logrus.NewEntry(log)

	var blobs blobstore.Store
	if cfg.BlobStorePath != "" {
		store, err := blobstore.OpenBoltStore(cfg.BlobStorePath)
		if err != nil {
			return fmt.Errorf("ninepd: opening blob store: %w", err)
		}
		defer store.Close()
		blobs = blobstore.NewCached(store, 64<<20)
	}

	fsBackend := osfs.New(cfg.Root, entry)
	fsBackend.Blobs = blobs

	dispatcher := newDispatcher(fsBackend, entry, cfg)

	listenAddr := v.GetString("listen")
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("ninepd: listen: %w", err)
	}
	defer ln.Close()
	entry.WithField("addr", listenAddr).WithField("root", cfg.Root).Info("ninepd: listening")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-sigCtx.Done():
				return nil
			default:
				return fmt.Errorf("ninepd: accept: %w", err)
			}
		}
		go netconn.Serve(conn, dispatcher, entry)
	}
}

func newDispatcher(b backend.Backend, log *logrus.Entry, cfg config.Config) *srv.Srv {
	s := srv.New(b, log, cfg.Msize)
	s.Device.MountTag = cfg.MountTag
	return s
}
