package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execute runs the root command with fresh flag values.
func execute(stdin string, args ...string) (string, error) {
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sample = `; proxy
name "edge proxy"
listen [0.0.0.0:8080, "[::]:8080"]
tls {
	cert /etc/tls/cert.pem
	key /etc/tls/key.pem
}
`

func TestVersionCmd(t *testing.T) {
	convey.Convey("version", t, func() {
		out, err := execute("", "version")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldStartWith, "uc v"+Version)
	})
}

func TestCheckCmd(t *testing.T) {
	convey.Convey("check", t, func() {
		dir := t.TempDir()
		good := writeFile(t, dir, "good.uc", sample)
		bad := writeFile(t, dir, "bad.uc", "a 1,, b 2\n")

		convey.Convey("valid file", func() {
			out, err := execute("", "check", good)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, good+": ok\n")
		})

		convey.Convey("invalid file reports kind and position", func() {
			out, err := execute("", "check", good, bad)
			convey.So(errors.Is(err, errCheckFailed), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "1 of 2")
			convey.So(out, convey.ShouldContainSubstring, good+": ok")
			convey.So(out, convey.ShouldContainSubstring, bad+":1:5: ConsecutiveSeparators: consecutive separators")
		})

		convey.Convey("stdin", func() {
			out, err := execute("key\n", "check")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, "<stdin>:1:1: MissingValue:")
		})

		convey.Convey("strict keys", func() {
			dup := writeFile(t, dir, "dup.uc", "a 1\na 2\n")
			out, err := execute("", "check", dup)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "ok")

			out, err = execute("", "check", "--strict-keys", dup)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, dup+":2:1: DuplicateKey:")
		})

		convey.Convey("deep nesting is an error", func() {
			deep := writeFile(t, dir, "deep.uc", "a "+strings.Repeat("[", 5000)+strings.Repeat("]", 5000))
			out, err := execute("", "check", deep)
			convey.So(errors.Is(err, errCheckFailed), convey.ShouldBeTrue)
			convey.So(out, convey.ShouldContainSubstring, "deep.uc:1:1003: NestingTooDeep:")

			shallow := writeFile(t, dir, "shallow.uc", "a [[x]]\n")
			out, err = execute("", "check", "--max-depth", "1", shallow)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, "shallow.uc:1:4: NestingTooDeep:")
		})

		convey.Convey("size budget", func() {
			out, err := execute("", "check", "--max-size", "4", good)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, "input too large")
		})

		convey.Convey("config file supplies defaults", func() {
			dup := writeFile(t, dir, "dup.uc", "a 1\na 2\n")
			conf := writeFile(t, dir, "uc.conf", "strict_keys true\nmax_size 1024\n")
			out, err := execute("", "check", "--config", conf, dup)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, "DuplicateKey")
			convey.So(rootParams.MaxSize, convey.ShouldEqual, int64(1024))

			_, err = execute("", "check", "--config", conf, "--max-size", "2048", good)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rootParams.MaxSize, convey.ShouldEqual, int64(2048))
		})

		convey.Convey("broken config file", func() {
			conf := writeFile(t, dir, "broken.conf", "max_size lots\n")
			_, err := execute("", "check", "--config", conf, good)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "max_size")
		})
	})
}

func TestFmtCmd(t *testing.T) {
	convey.Convey("fmt", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.uc", "b {x 1}, a [1, \"two words\"] ; trailing\n")
		want := "b {\n\tx 1\n}\na [\n\t1\n\t\"two words\"\n]\n"

		convey.Convey("to stdout", func() {
			out, err := execute("", "fmt", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, want)
		})

		convey.Convey("custom indent", func() {
			out, err := execute("", "fmt", "--indent", "  ", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldStartWith, "b {\n  x 1\n}")
		})

		convey.Convey("in place", func() {
			out, err := execute("", "fmt", "-w", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "")
			data, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, want)
		})

		convey.Convey("missing file", func() {
			_, err := execute("", "fmt", filepath.Join(dir, "nope.uc"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "not exist")
		})
	})
}

func TestGetCmd(t *testing.T) {
	convey.Convey("get", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.uc", sample)

		convey.Convey("string", func() {
			out, err := execute("", "get", "-i", path, "-f", "tls.cert")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "/etc/tls/cert.pem\n")
		})

		convey.Convey("array index", func() {
			out, err := execute("", "get", "-i", path, "-f", "listen.1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "[::]:8080\n")
		})

		convey.Convey("record", func() {
			out, err := execute("", "get", "-i", path, "-f", "tls")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "cert /etc/tls/cert.pem\nkey /etc/tls/key.pem\n")
		})

		convey.Convey("output file", func() {
			outPath := filepath.Join(dir, "name.txt")
			_, err := execute("", "get", "-i", path, "-f", "name", "-o", outPath)
			convey.So(err, convey.ShouldBeNil)
			data, err := os.ReadFile(outPath)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, "edge proxy\n")
		})

		convey.Convey("missing path", func() {
			_, err := execute("", "get", "-i", path, "-f", "tls.ca")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, `"tls.ca" not found`)
		})

		convey.Convey("quoted segment with dots", func() {
			hosts := writeFile(t, dir, "hosts.uc", "hosts\n{\n\t\"example.com\" { port 443 }\n}\n")
			out, err := execute("", "get", "-i", hosts, "-f", `hosts."example.com".port`)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "443\n")
		})

		convey.Convey("no input", func() {
			_, err := execute("", "get", "-f", "name")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestConvertCmd(t *testing.T) {
	convey.Convey("convert", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.uc", "name edge\nports [80, 443]\n")

		convey.Convey("to json", func() {
			out, err := execute("", "convert", "-i", path, "-t", "json")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "{\n  \"name\": \"edge\",\n  \"ports\": [\n    \"80\",\n    \"443\"\n  ]\n}\n")
		})

		convey.Convey("to yaml", func() {
			out, err := execute("", "convert", "-i", path, "-t", "yaml")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldStartWith, "name: edge\nports:\n")
			convey.So(out, convey.ShouldContainSubstring, `- "80"`)
			convey.So(out, convey.ShouldContainSubstring, `- "443"`)
		})

		convey.Convey("from json by extension", func() {
			src := writeFile(t, dir, "app.json", `{"port": 8080, "debug": true}`)
			out, err := execute("", "convert", "-i", src, "-t", "uc")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "port 8080\ndebug true\n")
		})

		convey.Convey("unknown format", func() {
			_, err := execute("", "convert", "-i", path, "-t", "xml")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTreeCmd(t *testing.T) {
	convey.Convey("tree", t, func() {
		out, err := execute("a [x]\n", "tree")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "`- Record\n   `- Field \"a\"\n      `- Array\n         `- String \"x\"\n")
	})
}

func TestFileWatcher(t *testing.T) {
	convey.Convey("file watcher", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.uc", "a 1\n")

		fw, err := newFileWatcher([]string{path})
		convey.So(err, convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		changed := make(chan string, 4)
		done := make(chan error, 1)
		go func() {
			done <- fw.run(ctx, 20*time.Millisecond, func(p string) { changed <- p })
		}()

		writeFile(t, dir, "other.uc", "ignored 1\n")
		writeFile(t, dir, "app.uc", "a 2\n")

		var got string
		select {
		case got = <-changed:
		case <-time.After(5 * time.Second):
		}
		convey.So(got, convey.ShouldEqual, path)

		cancel()
		var runErr error
		select {
		case runErr = <-done:
		case <-time.After(5 * time.Second):
			runErr = errors.New("watcher did not stop")
		}
		convey.So(runErr, convey.ShouldBeNil)
	})
}
