package email

const (
	subjectAdminLeadFmt = "New Lead: %s — %s"
	subjectAutoReplyFmt = "Thanks for contacting %s"
)
