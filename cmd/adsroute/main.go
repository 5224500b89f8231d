// Command adsroute is a small CLI around the goads client: it can
// identify a remote TwinCAT host, add an AMS route to it, and issue a
// handful of ad-hoc ADS requests against an already-routed target.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrpasztoradam/goads"
	"github.com/mrpasztoradam/goads/ams"
	"github.com/mrpasztoradam/goads/udp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adsroute",
		Short:         "Identify, route, and poke at Beckhoff ADS/AMS devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("host", "", "target host or IP")
	root.PersistentFlags().Duration("timeout", 5*time.Second, "request timeout")

	viper.SetEnvPrefix("ADS")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("host", root.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(newIdentifyCmd())
	root.AddCommand(newAddRouteCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newWriteCmd())
	return root
}

func dialTarget(cmd *cobra.Command, targetStr string) (*goads.Client, *goads.Device, context.Context, context.CancelFunc, error) {
	target, err := ams.ParseAmsAddr(targetStr)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))

	client, err := goads.Connect(ctx, fmt.Sprintf("%s:%d", viper.GetString("host"), 0xBF02))
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}
	return client, client.Device(target), ctx, cancel, nil
}

func newIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Identify a remote host over the UDP discovery service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
			defer cancel()

			info, err := udp.GetInfo(ctx, viper.GetString("host"))
			if err != nil {
				return err
			}
			fmt.Printf("hostname:    %s\n", info.Hostname)
			fmt.Printf("net id:      %s\n", ams.NetID(info.NetID))
			fmt.Printf("tc version:  %s\n", info.TcVersion)
			fmt.Printf("os version:  %s\n", info.OSVersion)
			fmt.Printf("fingerprint: %s\n", info.Fingerprint)
			return nil
		},
	}
}

func newAddRouteCmd() *cobra.Command {
	var routeName, hostname, username, password, netIDStr string
	cmd := &cobra.Command{
		Use:   "add-route",
		Short: "Add an AMS route on a remote host via the UDP discovery service",
		RunE: func(cmd *cobra.Command, args []string) error {
			netID, err := ams.ParseNetID(netIDStr)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
			defer cancel()
			return udp.AddRoute(ctx, viper.GetString("host"), routeName, netID, hostname, username, password)
		},
	}
	cmd.Flags().StringVar(&routeName, "name", "", "route name to create")
	cmd.Flags().StringVar(&hostname, "callback-host", "", "host/IP the remote should dial back")
	cmd.Flags().StringVar(&username, "username", "", "username for the remote")
	cmd.Flags().StringVar(&password, "password", "", "password for the remote")
	cmd.Flags().StringVar(&netIDStr, "net-id", "", "this client's AMS NetID, e.g. 10.0.0.5.1.1")
	return cmd
}

func newStateCmd() *cobra.Command {
	var targetStr string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read the ADS/device state of a routed target",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, dev, ctx, cancel, err := dialTarget(cmd, targetStr)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Shutdown(ctx)

			state, deviceState, err := dev.GetState(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("ads state:    %s\n", state)
			fmt.Printf("device state: %d\n", deviceState)
			return nil
		},
	}
	cmd.Flags().StringVar(&targetStr, "target", "", "target AMS address, e.g. 10.0.0.5.1.1:851")
	return cmd
}

func newReadCmd() *cobra.Command {
	var targetStr, dataType string
	var indexGroup, indexOffset, length uint32
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Issue a raw ADS Read against a routed target",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, dev, ctx, cancel, err := dialTarget(cmd, targetStr)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Shutdown(ctx)

			buf := make([]byte, length)
			n, err := dev.Read(ctx, indexGroup, indexOffset, buf)
			if err != nil {
				return err
			}
			if dataType == "" {
				fmt.Println(hex.EncodeToString(buf[:n]))
				return nil
			}
			fmt.Println(goads.DecodePLCValue(buf[:n], dataType))
			return nil
		},
	}
	cmd.Flags().StringVar(&targetStr, "target", "", "target AMS address, e.g. 10.0.0.5.1.1:851")
	cmd.Flags().Uint32Var(&indexGroup, "index-group", 0, "ADS index group")
	cmd.Flags().Uint32Var(&indexOffset, "index-offset", 0, "ADS index offset")
	cmd.Flags().Uint32Var(&length, "length", 4, "bytes to read")
	cmd.Flags().StringVar(&dataType, "type", "", "IEC 61131-3 type to decode the reply as (default: hex dump)")
	return cmd
}

func newWriteCmd() *cobra.Command {
	var targetStr, dataType, value string
	var indexGroup, indexOffset, stringSize uint32
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Issue a raw ADS Write against a routed target",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := goads.EncodePLCValue(value, dataType, stringSize)
			if err != nil {
				return err
			}
			client, dev, ctx, cancel, err := dialTarget(cmd, targetStr)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Shutdown(ctx)
			return dev.Write(ctx, indexGroup, indexOffset, data)
		},
	}
	cmd.Flags().StringVar(&targetStr, "target", "", "target AMS address, e.g. 10.0.0.5.1.1:851")
	cmd.Flags().Uint32Var(&indexGroup, "index-group", 0, "ADS index group")
	cmd.Flags().Uint32Var(&indexOffset, "index-offset", 0, "ADS index offset")
	cmd.Flags().StringVar(&dataType, "type", "DINT", "IEC 61131-3 type to encode value as")
	cmd.Flags().StringVar(&value, "value", "", "value to write, formatted per --type")
	cmd.Flags().Uint32Var(&stringSize, "size", 80, "wire width for --type STRING")
	return cmd
}
