package orchestrators

import "fmt"

func invitationMessage(meet, name, link string) (subject, body string) {
	subject = fmt.Sprintf("Your %s staff account", meet)
	greeting := "Hello"
	if name != "" {
		greeting += " " + md(name)
	}
	body = fmt.Sprintf("%s,\n\nAn account has been created for you on the **%s** admin desk.\n\n"+
		"[Set your password](%s)\n\nThe link expires in 72 hours.", greeting, md(meet), link)
	return subject, body
}

func requestApprovedMessage(meet, name, eventName, programName string) (subject, body string) {
	subject = fmt.Sprintf("%s: you are in %s", meet, eventName)
	body = fmt.Sprintf("Hello %s,\n\nYour request to take part in **%s** at %s has been approved. "+
		"See you on the field.", md(name), md(eventName), md(programName))
	return subject, body
}

func requestRejectedMessage(meet, name, eventName, reason string) (subject, body string) {
	subject = fmt.Sprintf("%s: request for %s", meet, eventName)
	body = fmt.Sprintf("Hello %s,\n\nYour request to take part in **%s** was not approved.\n\nReason: %s",
		md(name), md(eventName), md(reason))
	return subject, body
}

func certificateMessage(meet, name, eventName, link string) (subject, body string) {
	subject = fmt.Sprintf("%s: your certificate for %s", meet, eventName)
	body = fmt.Sprintf("Hello %s,\n\nYour certificate for **%s** is ready.\n\n[Download certificate](%s)",
		md(name), md(eventName), link)
	return subject, body
}

func newRequestAlert(name, registerNo, eventName string, pending int) string {
	return fmt.Sprintf("New request: %s (%s) for %s. %d pending.", name, registerNo, eventName, pending)
}
