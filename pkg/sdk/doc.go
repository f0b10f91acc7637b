// Package searchdex provides a Go client for the searchdex search API.
//
// The client talks HTTP to a running searchdex instance and mirrors its
// operations: configured search, autocomplete, browsing and section
// composition.
//
//	client, _ := searchdex.New(searchdex.WithBaseURL("http://localhost:8080"))
//	res, _ := client.Search(ctx, searchdex.NewQuery("camping tent").
//	    Types("products").
//	    Filter("brand", "acme").
//	    Page(0, 20))
//	for _, item := range res.Items {
//	    fmt.Println(item["title"])
//	}
package searchdex
