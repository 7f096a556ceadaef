package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/isbnx/internal/testutil"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) saveFixture(name string, img image.Image) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := testutil.SaveImage(path, img); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	testCtx.Files[name] = path
	return nil
}

// anImageWithISBN renders a single EAN-13 symbol carrying isbn.
func (testCtx *TestContext) anImageWithISBN(name, isbn string) error {
	img, err := testutil.RenderEAN13(isbn)
	if err != nil {
		return err
	}
	return testCtx.saveFixture(name, img)
}

// anImageWithISBNs stacks one EAN-13 symbol per comma separated value.
func (testCtx *TestContext) anImageWithISBNs(name, list string) error {
	var imgs []image.Image
	for _, code := range strings.Split(list, ",") {
		img, err := testutil.RenderEAN13(strings.TrimSpace(code))
		if err != nil {
			return err
		}
		imgs = append(imgs, img)
	}
	return testCtx.saveFixture(name, testutil.StackImages(80, imgs...))
}

func (testCtx *TestContext) aCode128Image(name, text string) error {
	img, err := testutil.RenderCode128(text)
	if err != nil {
		return err
	}
	return testCtx.saveFixture(name, img)
}

func (testCtx *TestContext) aUPCAImage(name, code string) error {
	img, err := testutil.RenderUPCA(code)
	if err != nil {
		return err
	}
	return testCtx.saveFixture(name, img)
}

func (testCtx *TestContext) aBlankImage(name string, width, height int) error {
	return testCtx.saveFixture(name, testutil.BlankImage(width, height))
}

func (testCtx *TestContext) aFileContaining(name, content string) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return err
	}
	testCtx.Files[name] = path
	return nil
}

func (testCtx *TestContext) aConfigFile(name string, doc *godog.DocString) error {
	return testCtx.aFileContaining(name, doc.Content)
}

// iRunIsbnx runs the command with whitespace separated arguments.
func (testCtx *TestContext) iRunIsbnx(args string) error {
	testCtx.run(strings.Fields(testCtx.expand(args)))
	return nil
}

func (testCtx *TestContext) iRunIsbnxWithoutArguments() error {
	testCtx.run([]string{})
	return nil
}

func (testCtx *TestContext) theExitCodeShouldBe(code int) error {
	if testCtx.LastExitCode != code {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			code, testCtx.LastExitCode, testCtx.LastStdout, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) stdoutShouldBe(doc *godog.DocString) error {
	want := doc.Content + "\n"
	if testCtx.LastStdout != want {
		return fmt.Errorf("stdout mismatch\nwant: %q\ngot:  %q", want, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) stdoutShouldContainLine(line string) error {
	for _, l := range strings.Split(testCtx.LastStdout, "\n") {
		if l == line {
			return nil
		}
	}
	return fmt.Errorf("stdout has no line %q\nstdout: %s", line, testCtx.LastStdout)
}

func (testCtx *TestContext) stdoutShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStdout, testCtx.expand(text)) {
		return fmt.Errorf("stdout does not contain '%s'\nActual output: %s", text, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) stdoutShouldBeEmpty() error {
	if testCtx.LastStdout != "" {
		return fmt.Errorf("expected empty stdout, got: %s", testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) stderrShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, testCtx.expand(text)) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) stdoutShouldBeValidJSONWithFound(found int) error {
	var summary struct {
		Found int      `json:"found"`
		ISBNs []string `json:"isbns"`
	}
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &summary); err != nil {
		return fmt.Errorf("stdout is not valid JSON: %w\n%s", err, testCtx.LastStdout)
	}
	if summary.Found != found || len(summary.ISBNs) != found {
		return fmt.Errorf("expected %d ISBNs, got found=%d isbns=%v", found, summary.Found, summary.ISBNs)
	}
	return nil
}

func (testCtx *TestContext) outputShouldMatchPreviousRun() error {
	if len(testCtx.PreviousStdout) == 0 {
		return errors.New("no previous run in this scenario")
	}
	prev := testCtx.PreviousStdout[len(testCtx.PreviousStdout)-1]
	if prev != testCtx.LastStdout {
		return fmt.Errorf("output differs between runs\nfirst:  %q\nsecond: %q", prev, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("%s does not contain '%s'\n%s", name, text, data)
	}
	return nil
}

// RegisterSteps registers all step definitions.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Fixtures
	sc.Step(`^an image "([^"]*)" with ISBN "([^"]*)"$`, testCtx.anImageWithISBN)
	sc.Step(`^an image "([^"]*)" with ISBNs "([^"]*)"$`, testCtx.anImageWithISBNs)
	sc.Step(`^an image "([^"]*)" with Code 128 text "([^"]*)"$`, testCtx.aCode128Image)
	sc.Step(`^an image "([^"]*)" with UPC-A "([^"]*)"$`, testCtx.aUPCAImage)
	sc.Step(`^a blank (\d+)x(\d+) image "([^"]*)"$`, func(w, h int, name string) error {
		return testCtx.aBlankImage(name, w, h)
	})
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileContaining)
	sc.Step(`^a config file "([^"]*)":$`, testCtx.aConfigFile)

	// Execution
	sc.Step(`^I run isbnx without arguments$`, testCtx.iRunIsbnxWithoutArguments)
	sc.Step(`^I run isbnx with "([^"]*)"$`, testCtx.iRunIsbnx)

	// Assertions
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)
	sc.Step(`^stdout should be:$`, testCtx.stdoutShouldBe)
	sc.Step(`^stdout should contain the line "([^"]*)"$`, testCtx.stdoutShouldContainLine)
	sc.Step(`^stdout should contain "([^"]*)"$`, testCtx.stdoutShouldContain)
	sc.Step(`^stdout should be empty$`, testCtx.stdoutShouldBeEmpty)
	sc.Step(`^stderr should contain "([^"]*)"$`, testCtx.stderrShouldContain)
	sc.Step(`^stdout should be JSON reporting (\d+) ISBNs?$`, testCtx.stdoutShouldBeValidJSONWithFound)
	sc.Step(`^the output should match the previous run$`, testCtx.outputShouldMatchPreviousRun)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
