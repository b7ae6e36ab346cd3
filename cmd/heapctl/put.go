package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

var (
	putList    bool
	putFile    string
	putCharset string
)

func init() {
	cmd := &cobra.Command{
		Use:   "put <file> [text]...",
		Short: "Store text and print its root pointer",
		Long: `The put command stores its text argument as a new string tree and
prints the root pointer. With --list every text argument becomes a
string and the strings are stored in a new list.

With --input the text is read from a file instead, decoded from
--charset to UTF-8. Combined with --list every line of the file becomes
one string.

Example:
  heapctl put data.heap "hello world"
  heapctl put data.heap --list alpha beta gamma
  heapctl put data.heap --list --input names.txt --charset windows-1252`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(args)
		},
	}
	cmd.Flags().BoolVar(&putList, "list", false, "Store the texts as a list of strings")
	cmd.Flags().StringVar(&putFile, "input", "", "Read the text from this file")
	cmd.Flags().StringVar(&putCharset, "charset", "utf-8", "Charset of --input (utf-8, windows-1252, iso-8859-1, utf-16le, utf-16be)")
	rootCmd.AddCommand(cmd)
}

func runPut(args []string) error {
	path, texts := args[0], args[1:]
	if putFile != "" {
		if len(texts) > 0 {
			return fmt.Errorf("put takes either text arguments or --input, not both")
		}
		var err error
		if texts, err = readTexts(putFile, putCharset, putList); err != nil {
			return err
		}
	}
	if !putList && len(texts) != 1 {
		return fmt.Errorf("put takes one text argument, got %d (use --list for several)", len(texts))
	}

	s, err := openStore(path, false)
	if err != nil {
		return err
	}

	var root alloc.Ptr
	if putList {
		root, err = putStrings(s, texts)
	} else {
		root, err = s.PutString(texts[0])
	}
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("failed to store: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close heap: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]any{"root": root.String()})
	}
	fmt.Fprintln(stdout, root)
	return nil
}

func putStrings(s *heap.Store, texts []string) (alloc.Ptr, error) {
	list, err := s.NewList()
	if err != nil {
		return alloc.Null, err
	}
	items := make([]alloc.Ptr, 0, len(texts))
	for _, text := range texts {
		p, err := s.PutString(text)
		if err != nil {
			return alloc.Null, err
		}
		items = append(items, p)
	}
	if err := list.Append(items...); err != nil {
		return alloc.Null, err
	}
	return list.Root(), nil
}

func charsetDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return encoding.Nop.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown charset %q", name)
	}
}

// readTexts decodes the file at path to UTF-8. With lines set it returns
// one text per line, otherwise the whole file as one text.
func readTexts(path, charset string, lines bool) ([]string, error) {
	dec, err := charsetDecoder(charset)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	r := transform.NewReader(f, dec)
	if !lines {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode input: %w", err)
		}
		return []string{string(b)}, nil
	}

	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		texts = append(texts, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return texts, nil
}
