package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hsakai/streamzip/zip"
)

var createCmd = &cobra.Command{
	Use:   "create [paths...]",
	Short: "Create a ZIP archive from the named files and directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringP("output", "o", "-", "archive destination, - for stdout")
	createCmd.Flags().String("method", "deflate", "compression method: deflate or store")
	createCmd.Flags().String("comment", "", "archive comment")
	createCmd.Flags().Bool("no-zip64", false, "refuse to produce zip64 structures")
	viper.BindPFlag("method", createCmd.Flags().Lookup("method"))
}

func runCreate(c *cobra.Command, args []string) error {
	output, err := c.Flags().GetString("output")
	if err != nil {
		return err
	}
	comment, err := c.Flags().GetString("comment")
	if err != nil {
		return err
	}
	noZip64, err := c.Flags().GetBool("no-zip64")
	if err != nil {
		return err
	}
	method, err := methodFromName(viper.GetString("method"))
	if err != nil {
		return err
	}

	var sink io.Writer = os.Stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "create archive file")
		}
		sink = f
	}

	// The writer owns the sink and closes it with the archive.
	zw := zip.NewWriterOptions(sink, zip.Options{
		DisableZip64: noZip64,
		Logger:       newLogger(),
	})
	if err := archivePaths(zw, args, method); err != nil {
		return err
	}
	return zw.CloseWithComment(comment)
}

// archivePaths walks each path in order and streams it into zw. Directories
// recurse; entry names are slash-separated and rooted at the named path's
// base, so "streamzip create dir" produces "dir/..." entries.
func archivePaths(zw *zip.Writer, paths []string, method uint16) error {
	for _, p := range paths {
		root := filepath.Clean(p)
		base := filepath.Dir(root)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.Wrapf(err, "walk %s", path)
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			return writeEntry(zw, filepath.ToSlash(rel), path, info, method)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(zw *zip.Writer, name, path string, info os.FileInfo, method uint16) error {
	if !info.Mode().IsRegular() && !info.IsDir() {
		return nil // sockets, devices, symlinks are skipped
	}

	item := &zip.Item{
		Name:          name,
		Modified:      info.ModTime(),
		Method:        method,
		ExternalAttrs: uint32(info.Mode().Perm()) << 16,
	}
	if info.IsDir() {
		item.Name += "/"
		item.Method = zip.Store
		return zw.WriteItem(item)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	item.Size = info.Size()
	item.Content = f
	return zw.WriteItem(item)
}

func methodFromName(name string) (uint16, error) {
	switch strings.ToLower(name) {
	case "deflate":
		return zip.Deflate, nil
	case "store":
		return zip.Store, nil
	}
	return 0, errors.Errorf("unknown compression method %q", name)
}
