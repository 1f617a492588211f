package email

// testToken is the correlation value planted in test messages.
const testToken = "3f0c2b9e-6a51-4d7e-9a1c-0d8e5b7f4a21"

// testMailRFC822 is a minimal RFC 5322 message carrying testToken.
const testMailRFC822 = "MIME-Version: 1.0\r\n" +
	"From: sender@example.com\r\n" +
	"To: rcpt@example.com\r\n" +
	"Subject: Mail test\r\n" +
	"Date: Mon, 10 Feb 2026 08:00:00 +0000\r\n" +
	"Message-Id: <test-1@example.com>\r\n" +
	"X-Icinga-Test-Id: " + testToken + "\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello, World!\r\n"

// testMailOther is an unrelated message without a probe header.
const testMailOther = "From: someone@example.com\r\n" +
	"To: rcpt@example.com\r\n" +
	"Subject: Newsletter\r\n" +
	"\r\n" +
	"Nothing to see here.\r\n"
