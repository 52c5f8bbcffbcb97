// Package vecvstext compares a vector search engine with a text search engine
// over the same book corpus, in-process, against a remote books API.
//
// One query goes to both engines concurrently; each engine succeeds or fails
// on its own. The vector results can then be laid out in 2-D (PCA over their
// query-conditioned embeddings), and any result can be checked for which query
// words occur in its indexed vocabulary.
//
//	client, _ := vecvstext.New(ctx, vecvstext.WithBooksAPI("http://localhost:8000"))
//	defer client.Close()
//
//	cmp, _ := client.Compare(ctx, "story about an ogre")
//	for _, b := range cmp.Vector.Books { fmt.Println(b.Title) }
//
//	proj, _ := client.Project(ctx, cmp.Query, cmp.Candidates)
//	words, _ := client.Words(ctx, cmp.Query, cmp.Vector.Books[0].ID)
//
// Word indices and embedding batches can be cached in Redis/Valkey
// (WithRedis, WithValkey) or an embedded badger store (WithBadger).
package vecvstext
