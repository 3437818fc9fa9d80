package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/schemadesign/glassjournal-backend/internal/middleware"
	"github.com/schemadesign/glassjournal-backend/internal/services"
	"github.com/schemadesign/glassjournal-backend/internal/timeline"
)

// timelineContactID identifies this application's sharing contact on the
// remote API.
const timelineContactID = "glass-journal"

const paginatedHTML = `
<article class='auto-paginate'>
<h2 class='blue text-large'>Did you know...?</h2>
<p>Cats are <em class='yellow'>solar-powered.</em> The time they spend
napping in direct sunlight is necessary to regenerate their internal
batteries. Cats that do not receive sufficient charge may exhibit the
following symptoms: lethargy, irritability, and disdainful glares. Cats
will reactivate on their own automatically after a complete charge
cycle; it is recommended that they be left undisturbed during this
process to maximize your enjoyment of your cat.</p><br/><p>
For more cat maintenance tips, tap to view the website!</p>
</article>
`

// imageFetch bounds the outbound fetch of an imageUrl attachment. Past the
// deadline the fetch fails instead of hanging the request.
var imageFetch = &http.Client{Timeout: 20 * time.Second}

// TimelineState handles GET /. It drains the caller's status mailbox and
// returns the current remote state: contact, newest timeline items and
// subscription flags.
func TimelineState(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	client := middleware.TimelineClient(r)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	message, err := services.Mailbox.TakeAndClear(ctx, userID)
	if err != nil {
		log.Printf("Failed to read status mailbox for user %s: %v", userID, err)
	}

	state := map[string]interface{}{
		"success": true,
		"user_id": userID,
	}
	if message != "" {
		state["message"] = message
	}

	if contact, err := client.GetContact(ctx, timelineContactID); err != nil {
		log.Println("Unable to find Glass Journal contact.")
	} else {
		state["contact"] = contact
	}

	items, err := client.ListItems(ctx, 3)
	if err != nil {
		log.Printf("Failed to list timeline items for user %s: %v", userID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Unable to reach the timeline API",
		})
		return
	}
	state["timeline_items"] = items

	if subscriptions, err := client.ListSubscriptions(ctx); err != nil {
		log.Printf("Failed to list subscriptions for user %s: %v", userID, err)
	} else {
		for _, subscription := range subscriptions {
			switch subscription.Collection {
			case "timeline":
				state["timeline_subscription_exists"] = true
			case "locations":
				state["location_subscription_exists"] = true
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// TimelineOperation handles POST /. It executes the requested operation,
// stores the result message in the status mailbox and redirects back to GET /
// so the message is shown exactly once.
func TimelineOperation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	client := middleware.TimelineClient(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	operation := r.FormValue("operation")
	var message string
	switch operation {
	case "insertSubscription":
		message = insertSubscription(ctx, r, client, userID)
	case "deleteSubscription":
		message = deleteSubscription(ctx, r, client)
	case "insertItem":
		message = insertItem(ctx, r, client)
	case "insertPaginatedItem":
		message = insertPaginatedItem(ctx, client)
	case "insertItemWithAction":
		message = insertItemWithAction(ctx, client)
	case "insertItemAllUsers":
		message = insertItemAllUsers(ctx)
	case "insertContact":
		message = insertContact(ctx, r, client)
	case "deleteContact":
		message = deleteContact(ctx, r, client)
	case "deleteTimelineItem":
		message = deleteTimelineItem(ctx, r, client)
	default:
		message = "I don't know how to " + operation
	}

	if err := services.Mailbox.Set(ctx, userID, message, services.DefaultFlashTTL); err != nil {
		log.Printf("Failed to store status message for user %s: %v", userID, err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func insertSubscription(ctx context.Context, r *http.Request, client *timeline.Client, userID string) string {
	collection := r.FormValue("collection")
	if collection == "" {
		collection = "timeline"
	}
	sub := timeline.Subscription{
		Collection:  collection,
		UserToken:   userID,
		CallbackURL: cfg.Host + "/notify",
	}
	if err := client.InsertSubscription(ctx, sub); err != nil {
		log.Printf("Failed to insert subscription for user %s: %v", userID, err)
		return "Unable to subscribe to updates."
	}
	return "Application is now subscribed to updates."
}

func deleteSubscription(ctx context.Context, r *http.Request, client *timeline.Client) string {
	if err := client.DeleteSubscription(ctx, r.FormValue("subscriptionId")); err != nil {
		log.Printf("Failed to delete subscription: %v", err)
		return "Unable to unsubscribe."
	}
	return "Application has been unsubscribed."
}

func insertItem(ctx context.Context, r *http.Request, client *timeline.Client) string {
	item := timeline.Item{
		Notification: &timeline.NotificationConfig{Level: "DEFAULT"},
	}
	if r.FormValue("html") == "on" {
		item.HTML = []string{r.FormValue("message")}
	} else {
		item.Text = r.FormValue("message")
	}

	mediaLink := r.FormValue("imageUrl")
	if mediaLink == "" {
		if err := client.InsertItem(ctx, item); err != nil {
			log.Printf("Failed to insert timeline item: %v", err)
			return "Unable to insert the timeline item."
		}
		return "A timeline item has been inserted."
	}

	if strings.HasPrefix(mediaLink, "/") {
		mediaLink = cfg.Host + mediaLink
	}
	image, err := fetchImage(ctx, mediaLink)
	if err != nil {
		log.Printf("Failed to fetch image %s: %v", mediaLink, err)
		return "Unable to fetch the image for this timeline item."
	}
	if err := client.InsertItemWithImage(ctx, item, image, "image/jpeg"); err != nil {
		log.Printf("Failed to insert timeline item with image: %v", err)
		return "Unable to insert the timeline item."
	}
	return "A timeline item has been inserted."
}

func fetchImage(ctx context.Context, mediaLink string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", mediaLink, nil)
	if err != nil {
		return nil, err
	}
	resp, err := imageFetch.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func insertPaginatedItem(ctx context.Context, client *timeline.Client) string {
	item := timeline.Item{
		HTML:         []string{paginatedHTML},
		Notification: &timeline.NotificationConfig{Level: "DEFAULT"},
		MenuItems: []timeline.MenuItem{{
			Action:  "OPEN_URI",
			Payload: "https://www.google.com/search?q=cat+maintenance+tips",
		}},
	}
	if err := client.InsertItem(ctx, item); err != nil {
		log.Printf("Failed to insert paginated timeline item: %v", err)
		return "Unable to insert the timeline item."
	}
	return "A timeline item has been inserted."
}

func insertItemWithAction(ctx context.Context, client *timeline.Client) string {
	item := timeline.Item{
		Creator: &timeline.Creator{
			DisplayName: "Glass Journal",
			ID:          "GLASS_JOURNAL",
		},
		Text:         "Tell me what you had for lunch :)",
		Notification: &timeline.NotificationConfig{Level: "DEFAULT"},
		MenuItems:    []timeline.MenuItem{{Action: "REPLY"}},
	}
	if err := client.InsertItem(ctx, item); err != nil {
		log.Printf("Failed to insert timeline item with action: %v", err)
		return "Unable to insert the timeline item."
	}
	return "A timeline item with action has been inserted."
}

func insertItemAllUsers(ctx context.Context) string {
	ownerIDs, err := credResolver.ListOwnerIDs(ctx)
	if err != nil {
		log.Printf("Failed to list registered users: %v", err)
		return "Unable to list registered users for the broadcast."
	}

	item := timeline.Item{
		Text:         "Hello Everyone!",
		Notification: &timeline.NotificationConfig{Level: "DEFAULT"},
	}
	result := broadcaster.Broadcast(ctx, ownerIDs, item)
	return result.Summary()
}

func insertContact(ctx context.Context, r *http.Request, client *timeline.Client) string {
	id := r.FormValue("id")
	name := r.FormValue("name")
	imageURL := r.FormValue("imageUrl")
	if name == "" || imageURL == "" {
		return "Must specify imageUrl and name to insert contact"
	}
	if strings.HasPrefix(imageURL, "/") {
		imageURL = cfg.Host + imageURL
	}
	contact := timeline.Contact{
		ID:             id,
		DisplayName:    name,
		ImageURLs:      []string{imageURL},
		AcceptCommands: []timeline.AcceptCommand{{Type: "TAKE_A_NOTE"}},
	}
	if err := client.InsertContact(ctx, contact); err != nil {
		log.Printf("Failed to insert contact %s: %v", name, err)
		return "Unable to insert contact."
	}
	return "Inserted contact: " + name
}

func deleteContact(ctx context.Context, r *http.Request, client *timeline.Client) string {
	if err := client.DeleteContact(ctx, r.FormValue("id")); err != nil {
		log.Printf("Failed to delete contact: %v", err)
		return "Unable to delete contact."
	}
	return "Contact has been deleted."
}

func deleteTimelineItem(ctx context.Context, r *http.Request, client *timeline.Client) string {
	if err := client.DeleteItem(ctx, r.FormValue("itemId")); err != nil {
		log.Printf("Failed to delete timeline item: %v", err)
		return "Unable to delete the timeline item."
	}
	return "A timeline item has been deleted."
}
