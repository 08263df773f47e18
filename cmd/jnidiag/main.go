// jnidiag inspects the host for jnigo's runtime requirements: where the
// JVM library is, whether a VM can be brought up, and whether the
// invocation-handler shim class is available.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obinnaokechukwu/jnigo"
	"github.com/obinnaokechukwu/jnigo/internal/bindings"
	"github.com/obinnaokechukwu/jnigo/internal/platform"
	"github.com/obinnaokechukwu/jnigo/internal/shimclass"
	"github.com/obinnaokechukwu/jnigo/jni"
)

func main() {
	root := &cobra.Command{
		Use:           "jnidiag",
		Short:         "Diagnose the JVM environment for jnigo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(locateCmd(), checkCmd(), shimCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jnidiag:", err)
		os.Exit(1)
	}
}

func locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show where the JVM runtime library would be loaded from",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("platform:    %s/%s\n", platform.GOOS(), platform.GOARCH())
			fmt.Printf("library:     %s\n", platform.JVMLibraryName())
			if home := os.Getenv("JAVA_HOME"); home != "" {
				fmt.Printf("JAVA_HOME:   %s\n", home)
			}

			path, err := bindings.FindJVMLibrary()
			if err != nil {
				fmt.Println("resolved:    (not found)")
				fmt.Println("candidates:")
				for _, h := range platform.JavaHomeCandidates() {
					fmt.Printf("  %s\n", h)
				}
				return err
			}
			fmt.Printf("resolved:    %s\n", path)
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	var attach bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the JVM library and optionally bring up a VM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := jnigo.Init(); err != nil {
				return err
			}
			fmt.Println("library:     loaded")

			if cfgErr := bindings.ConfigError(); cfgErr != nil {
				fmt.Printf("config:      malformed (%v)\n", cfgErr)
			}

			if !attach {
				return nil
			}
			return jnigo.WithEnv(func(env jni.Env) error {
				v := env.GetVersion()
				fmt.Printf("vm:          up, JNI version %d.%d\n", v>>16, v&0xffff)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&attach, "attach", false, "create a VM and attach the current thread")
	return cmd
}

func shimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shim",
		Short: "Check whether the invocation-handler shim class is discoverable",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("class:       %s\n", shimclass.BinaryName)
			data, err := shimclass.ClassData()
			if err != nil {
				fmt.Println("bytes:       not found")
				fmt.Println("hint:        run shim/build.sh and set JNIGO_SHIM_PATH, or put the class on the JVM classpath")
				return err
			}
			if len(data) >= 4 {
				fmt.Printf("bytes:       %d (magic %x)\n", len(data), data[:4])
			} else {
				fmt.Printf("bytes:       %d\n", len(data))
			}
			return nil
		},
	}
}
