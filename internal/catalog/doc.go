// Package catalog fetches course descriptions from the remote course catalog.
//
// A catalog page embeds its data as JSON inside a <script> tag; the client
// extracts that payload and decodes props.pageProps into a Page. A Page either
// describes a single course (Course plus Curriculum) or a bundle whose members
// are listed as id/slug summaries and fetched one by one.
//
// Records are validated once at decode time. Missing fields surface as
// services.ErrMalformedCatalog; transport failures as
// services.ErrCatalogUnavailable.
package catalog
