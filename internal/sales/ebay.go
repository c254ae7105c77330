package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

const ebayFindingEndpoint = "https://svcs.ebay.com/services/search/FindingService/v1"

// EbayFetcher queries the eBay Finding API for completed listings matching a
// card. Requires an application id; use NoopFetcher when none is configured.
type EbayFetcher struct {
	appID    string
	endpoint string
	client   *http.Client
}

// NewEbayFetcher creates a fetcher against the production Finding API
func NewEbayFetcher(appID string) *EbayFetcher {
	return &EbayFetcher{
		appID:    appID,
		endpoint: ebayFindingEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// findingResponse is the subset of the Finding API payload we read. The API
// wraps every field in a single-element array.
type findingResponse struct {
	FindCompletedItemsResponse []findingResult `json:"findCompletedItemsResponse"`
}

type findingResult struct {
	SearchResult []findingSearchResult `json:"searchResult"`
}

type findingSearchResult struct {
	Item []findingItem `json:"item"`
}

type findingItem struct {
	ViewItemURL   []string `json:"viewItemURL"`
	SellingStatus []struct {
		CurrentPrice []struct {
			Value string `json:"__value__"`
		} `json:"currentPrice"`
	} `json:"sellingStatus"`
	ListingInfo []struct {
		EndTime []string `json:"endTime"`
	} `json:"listingInfo"`
}

func (i findingItem) price() string {
	if len(i.SellingStatus) > 0 && len(i.SellingStatus[0].CurrentPrice) > 0 {
		return i.SellingStatus[0].CurrentPrice[0].Value
	}
	return ""
}

func (i findingItem) endTime() string {
	if len(i.ListingInfo) > 0 && len(i.ListingInfo[0].EndTime) > 0 {
		return i.ListingInfo[0].EndTime[0]
	}
	return ""
}

// FetchSales searches completed listings for "<year> <brand> <first> <last> #<number>"
func (f *EbayFetcher) FetchSales(ctx context.Context, card *schema.Card) ([]Sale, error) {
	keywords := fmt.Sprintf("%d %s %s %s #%s",
		card.Year, card.Brand, card.FirstName, card.LastName, card.CardNumber)

	q := url.Values{}
	q.Set("OPERATION-NAME", "findCompletedItems")
	q.Set("SERVICE-VERSION", "1.13.0")
	q.Set("SECURITY-APPNAME", f.appID)
	q.Set("RESPONSE-DATA-FORMAT", "JSON")
	q.Set("keywords", keywords)
	q.Set("itemFilter(0).name", "SoldItemsOnly")
	q.Set("itemFilter(0).value", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finding api returned %d", resp.StatusCode)
	}

	var payload findingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode finding response: %w", err)
	}

	var sales []Sale
	for _, r := range payload.FindCompletedItemsResponse {
		for _, sr := range r.SearchResult {
			for _, item := range sr.Item {
				if sale, ok := saleFromItem(item.ViewItemURL, item.price(), item.endTime()); ok {
					sales = append(sales, sale)
				}
			}
		}
	}
	return sales, nil
}

func saleFromItem(urls []string, rawPrice, rawEnd string) (Sale, bool) {
	if len(urls) == 0 || rawPrice == "" || rawEnd == "" {
		return Sale{}, false
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil || price <= 0 {
		return Sale{}, false
	}
	endTime, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return Sale{}, false
	}
	return Sale{
		Price:    price,
		SaleDate: endTime,
		Source:   "eBay",
		URL:      urls[0],
	}, true
}

// NoopFetcher returns no sales. Used when no marketplace credentials are
// configured so the sweep still exercises the pipeline in development.
type NoopFetcher struct{}

// FetchSales always returns an empty result
func (NoopFetcher) FetchSales(ctx context.Context, card *schema.Card) ([]Sale, error) {
	return nil, nil
}
