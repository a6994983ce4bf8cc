package service

import "campus_marketplace/internal/apperr"

// Cart
var (
	ErrProductNotFound    = apperr.New(apperr.NotFound, "product_not_found", "Product not found")
	ErrProductUnavailable = apperr.New(apperr.Unavailable, "product_unavailable", "Product is no longer available")
	ErrSelfPurchase       = apperr.New(apperr.Forbidden, "self_purchase", "You cannot buy your own product")
	ErrInvalidQuantity    = apperr.New(apperr.InvalidInput, "invalid_quantity", "Quantity must be at least 1")
	ErrCartItemNotFound   = apperr.New(apperr.NotFound, "cart_item_not_found", "Cart item not found")
	ErrNotCartOwner       = apperr.New(apperr.Forbidden, "not_cart_owner", "This cart item belongs to another user")
)

// Orders
var (
	ErrEmptyCart            = apperr.New(apperr.InvalidInput, "empty_cart", "Cart has no available items")
	ErrInvalidPaymentMethod = apperr.New(apperr.InvalidInput, "invalid_payment_method", "Payment method must be credit, paypal or other")
	ErrOrderNotFound        = apperr.New(apperr.NotFound, "order_not_found", "Order not found")
	ErrNotOrderParty        = apperr.New(apperr.Forbidden, "not_order_party", "You are not allowed to access this order")
	ErrAlreadyTerminal      = apperr.New(apperr.Conflict, "order_terminal", "Order is already completed or cancelled")
	ErrInvalidOrderStatus   = apperr.New(apperr.InvalidInput, "invalid_order_status", "Status must be pending, completed or cancelled")
	ErrInvalidPaymentStatus = apperr.New(apperr.InvalidInput, "invalid_payment_status", "Payment status must be pending or paid")
	ErrAlreadyPaid          = apperr.New(apperr.Conflict, "already_paid", "Order has already been paid")
	ErrPaymentFailed        = apperr.New(apperr.InvalidInput, "payment_failed", "Payment method token is required")
)

// Messaging
var (
	ErrConversationNotFound = apperr.New(apperr.NotFound, "conversation_not_found", "Conversation not found")
	ErrNotParticipant       = apperr.New(apperr.Forbidden, "not_participant", "You are not a participant of this conversation")
	ErrSelfMessage          = apperr.New(apperr.InvalidInput, "self_message", "You cannot message yourself about your own product")
	ErrEmptyMessage         = apperr.New(apperr.InvalidInput, "empty_message", "Message text is required")
)

// Reviews
var (
	ErrInvalidRating   = apperr.New(apperr.InvalidInput, "invalid_rating", "Rating must be between 1 and 5")
	ErrSellerMismatch  = apperr.New(apperr.InvalidInput, "seller_mismatch", "Product does not belong to this seller")
	ErrSelfReview      = apperr.New(apperr.Forbidden, "self_review", "You cannot review yourself")
	ErrNotPurchased    = apperr.New(apperr.Forbidden, "not_purchased", "You can only review products you have purchased")
	ErrAlreadyReviewed = apperr.New(apperr.Conflict, "already_reviewed", "You have already reviewed this product")
	ErrReviewNotFound  = apperr.New(apperr.NotFound, "review_not_found", "Review not found")
	ErrNotReviewOwner  = apperr.New(apperr.Forbidden, "not_review_owner", "You can only modify your own reviews")
	ErrSellerNotFound  = apperr.New(apperr.NotFound, "seller_not_found", "Seller not found")
)

// Reports
var (
	ErrInvalidReportType   = apperr.New(apperr.InvalidInput, "invalid_report_type", "Report type must be User or Listing")
	ErrInvalidReportStatus = apperr.New(apperr.InvalidInput, "invalid_report_status", "Status must be pending, resolved or dismissed")
	ErrReasonRequired      = apperr.New(apperr.InvalidInput, "reason_required", "A reason is required")
	ErrSelfReport          = apperr.New(apperr.Forbidden, "self_report", "You cannot report yourself or your own listing")
	ErrAlreadyReported     = apperr.New(apperr.Conflict, "already_reported", "You have already reported this item")
	ErrReportNotFound      = apperr.New(apperr.NotFound, "report_not_found", "Report not found")
	ErrReportTargetMissing = apperr.New(apperr.NotFound, "report_target_not_found", "Reported item not found")
)

// Products
var (
	ErrNotProductOwner      = apperr.New(apperr.Forbidden, "not_product_owner", "You can only modify your own products")
	ErrInvalidProduct       = apperr.New(apperr.InvalidInput, "invalid_product", "Title and a positive price are required")
	ErrUnknownCategory      = apperr.New(apperr.InvalidInput, "unknown_category", "Unknown category")
	ErrInvalidCondition     = apperr.New(apperr.InvalidInput, "invalid_condition", "Condition must be new, like_new, good or fair")
	ErrInvalidDecision      = apperr.New(apperr.InvalidInput, "invalid_decision", "Decision must be approve, reject or suspend")
	ErrInvalidProductStatus = apperr.New(apperr.InvalidInput, "invalid_product_status", "Status must be active, pending, sold, suspended or rejected")
	ErrModeratedListing     = apperr.New(apperr.Forbidden, "moderated_listing", "Only admins can list pending, rejected or suspended products")
)

// Accounts
var (
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "invalid_credentials", "Invalid email or password")
	ErrAccountExists      = apperr.New(apperr.Conflict, "account_exists", "Username or email already registered")
	ErrInvalidAccount     = apperr.New(apperr.InvalidInput, "invalid_account", "Username, a valid email and a password of at least 8 characters are required")
	ErrUserNotFound       = apperr.New(apperr.NotFound, "user_not_found", "User not found")
)
