// Package pagination walks offset-paginated list endpoints.
//
// The match-history listing returns at most one page of identifiers per call
// and carries no total count, so pages are requested one after another with an
// advancing start offset until a short page signals the end:
//
//	pager := pagination.NewPager(pagination.DefaultConfig())
//	ids, err := pager.FetchAll(ctx, pagination.PageFetcherFunc(
//		func(ctx context.Context, start, count int) ([]string, error) {
//			return listMatchIDs(ctx, start, count)
//		}))
//
// For N items and page size P this issues floor(N/P)+1 requests. A page that
// is exactly full always triggers one more request, which returns empty.
package pagination
