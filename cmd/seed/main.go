package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jaswdr/faker"

	"inkwell/pkg/config"
	"inkwell/pkg/richtext"
	"inkwell/pkg/services"
	"inkwell/pkg/session"
	"inkwell/pkg/storage"
)

// Development tool: fills the collection with sample documents, some
// of them carrying formatting and a link, to exercise the rich cache.
func main() {
	count := flag.Int("n", 10, "number of documents to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cache := storage.NewRichCacheStore(cfg.CacheDir)
	store := storage.NewDocumentStore(cfg.CollectionPath, cache)
	defer store.Close()

	if _, err := store.LoadAll(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load collection: %v\n", err)
		os.Exit(1)
	}

	svc := services.NewDocumentService(store)
	sess := session.NewEditorSession(store, cache)
	f := faker.New()

	for i := 0; i < *count; i++ {
		title := strings.TrimSuffix(f.Lorem().Sentence(3), ".")
		body := f.Lorem().Paragraph(4)

		doc, err := svc.CreateDocument(title, body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create document: %v\n", err)
			os.Exit(1)
		}

		// Every other document gets formatting so the cache path and
		// blob round trip get exercised too
		if i%2 == 0 {
			if err := sess.Switch(doc.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", doc.ID, err)
				os.Exit(1)
			}
			err := sess.Apply(func(text *richtext.StyledText) error {
				firstWord := len([]rune(strings.SplitN(body, " ", 2)[0]))
				if err := text.SetBold(0, firstWord, true); err != nil {
					return err
				}
				return text.SetLink(0, firstWord, f.Internet().URL())
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to format %s: %v\n", doc.ID, err)
				os.Exit(1)
			}
		}

		fmt.Printf("Created %s (%s)\n", doc.ID, doc.Title)
	}

	if err := sess.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d documents into %s\n", *count, cfg.CollectionPath)
}
