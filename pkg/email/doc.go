// Package email provides the outbound email sender used by the email
// delivery channel.
//
// Production uses the Postmark-backed sender; development and tests use
// DevSender, which writes messages to disk instead of sending them:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	...
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "trader@example.com",
//	    Subject:  "Price alert triggered: BTC",
//	    BodyHTML: body,
//	    Tag:      "alert-triggered",
//	})
package email
